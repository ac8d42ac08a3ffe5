package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"newswire/internal/cache"
	pkglogger "newswire/pkg/logger"
)

// Lockout policy. Fixed, not runtime-configurable.
const (
	MaxFailedAttempts = 5
	LockoutDuration   = 15 * time.Minute
	AttemptWindow     = 30 * time.Minute
)

const (
	attemptKeyPrefix = "login:attempts:"
	lockoutKeyPrefix = "login:lockout:"
)

// LockoutStatus is what a locked-out caller is shown instead of a generic
// auth failure.
type LockoutStatus struct {
	Message          string `json:"message"`
	RemainingMinutes int    `json:"remaining_minutes"`
}

// LockoutGuard decides whether a login attempt for an identity may proceed
// and records attempt outcomes. Identities are matched case-insensitively.
//
// Store errors fail open: an unreachable cache must not lock out legitimate
// users, it only weakens throttling until the cache recovers.
type LockoutGuard struct {
	store  cache.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewLockoutGuard(store cache.Store, logger *slog.Logger) *LockoutGuard {
	return &LockoutGuard{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// IsLocked reports whether an unexpired lockout exists for identity, lazily
// removing expired entries.
func (g *LockoutGuard) IsLocked(ctx context.Context, identity string) bool {
	identity = normalizeIdentity(identity)
	if identity == "" {
		return false
	}

	lockedUntil, ok := g.lockedUntil(ctx, identity)
	if !ok {
		return false
	}

	if !lockedUntil.After(g.now()) {
		if err := g.store.Delete(ctx, lockoutKeyPrefix+identity); err != nil {
			g.logger.Error("failed to remove expired lockout", slog.Any("error", err))
		}
		return false
	}

	return true
}

// LockedResponse returns the user-facing lockout payload, remaining time
// ceiling-rounded to whole minutes. Call only after IsLocked returned true;
// a racing expiry yields a zero-minute status.
func (g *LockoutGuard) LockedResponse(ctx context.Context, identity string) LockoutStatus {
	identity = normalizeIdentity(identity)

	remaining := 0
	if lockedUntil, ok := g.lockedUntil(ctx, identity); ok {
		if d := lockedUntil.Sub(g.now()); d > 0 {
			remaining = int(math.Ceil(d.Minutes()))
		}
	}

	return LockoutStatus{
		Message:          fmt.Sprintf("Too many failed login attempts. Try again in %d minutes.", remaining),
		RemainingMinutes: remaining,
	}
}

// RecordFailure increments the identity's failure counter, resetting its
// sliding expiry window. The fifth failure escalates to a lockout and drops
// the counter: the lockout fully supersedes it.
func (g *LockoutGuard) RecordFailure(ctx context.Context, identity string) error {
	identity = normalizeIdentity(identity)
	if identity == "" {
		return nil
	}

	// Atomic increment: concurrent failures for the same identity must
	// each count, or a credential-stuffing burst undercounts.
	count, err := g.store.Increment(ctx, attemptKeyPrefix+identity, AttemptWindow)
	if err != nil {
		g.logger.Error("failed to increment attempt counter", slog.Any("error", err))
		return nil
	}

	if count >= MaxFailedAttempts {
		lockedUntil := g.now().Add(LockoutDuration)
		if err := g.store.Set(ctx, lockoutKeyPrefix+identity, lockedUntil.Format(time.RFC3339Nano), LockoutDuration); err != nil {
			return fmt.Errorf("failed to store lockout: %w", err)
		}
		if err := g.store.Delete(ctx, attemptKeyPrefix+identity); err != nil {
			g.logger.Error("failed to drop superseded attempt counter", slog.Any("error", err))
		}

		g.logger.Warn("account locked out",
			slog.String("identity", pkglogger.SanitizedEmail(identity)),
			slog.Int64("failed_attempts", count),
			slog.Time("locked_until", lockedUntil))
	}

	return nil
}

// RecordSuccess clears both the attempt counter and any lockout. A
// successful login always wipes history.
func (g *LockoutGuard) RecordSuccess(ctx context.Context, identity string) error {
	identity = normalizeIdentity(identity)
	if identity == "" {
		return nil
	}

	if err := g.store.Delete(ctx, attemptKeyPrefix+identity); err != nil {
		return fmt.Errorf("failed to clear attempt counter: %w", err)
	}
	if err := g.store.Delete(ctx, lockoutKeyPrefix+identity); err != nil {
		return fmt.Errorf("failed to clear lockout: %w", err)
	}
	return nil
}

func (g *LockoutGuard) lockedUntil(ctx context.Context, identity string) (time.Time, bool) {
	value, ok, err := g.store.Get(ctx, lockoutKeyPrefix+identity)
	if err != nil {
		g.logger.Error("failed to read lockout entry", slog.Any("error", err))
		return time.Time{}, false
	}
	if !ok {
		return time.Time{}, false
	}

	lockedUntil, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		g.logger.Error("malformed lockout entry", slog.String("identity", identity), slog.Any("error", err))
		return time.Time{}, false
	}

	return lockedUntil, true
}

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
