package notify

import (
	"fmt"
	"html"

	"newswire/internal/models"
)

// renderBody builds the notification HTML for one recipient. The
// unsubscribe link is generated from the recipient's own subscription token,
// never from positional alignment with a URL list.
func (d *Dispatcher) renderBody(job Job, sub models.Subscription) string {
	title := html.EscapeString(job.Title)
	category := html.EscapeString(job.CategoryName)
	author := html.EscapeString(job.AuthorName)
	preview := html.EscapeString(contentPreview(job.Content))
	published := job.PublishedAt.Format("January 2, 2006")

	imageBlock := ""
	if job.ImageURL != "" {
		imageBlock = fmt.Sprintf(`<img src="%s" alt="" style="max-width: 100%%; border-radius: 4px; margin: 16px 0;">`, job.ImageURL)
	}

	unsubscribeURL := fmt.Sprintf("%s/subscriptions/unsubscribe?token=%s", d.baseURL, sub.UnsubscribeToken)

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Georgia, serif; line-height: 1.6; color: #222; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .category { color: #b00; font-size: 13px; text-transform: uppercase; letter-spacing: 1px; }
        .byline { color: #666; font-size: 14px; }
        .button { display: inline-block; background-color: #b00; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { color: #999; font-size: 12px; margin-top: 24px; padding-top: 16px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <p class="category">%s</p>
        <h1>%s</h1>
        <p class="byline">By %s · %s</p>
        %s
        <p>%s</p>
        <p><a href="%s" class="button">Read the full article</a></p>
        <div class="footer">
            <p>You are receiving this because you subscribed to article notifications.</p>
            <p><a href="%s">Unsubscribe</a></p>
        </div>
    </div>
</body>
</html>
`, category, title, author, published, imageBlock, preview, job.ArticleURL, unsubscribeURL)
}

// contentPreview truncates article content to the preview length, appending
// an ellipsis when anything was cut.
func contentPreview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
