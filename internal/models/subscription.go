package models

import "time"

// Subscription is one reader's email subscription to article notifications.
// UnsubscribeToken is generated at subscribe time and keys the per-recipient
// unsubscribe link embedded in every notification email.
type Subscription struct {
	ID               string
	Email            string
	UnsubscribeToken string
	IsActive         bool
	CreatedAt        time.Time
}
