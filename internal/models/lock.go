package models

import "time"

// LockState holds the advisory edit-lock columns embedded in every
// lockable entity. Blocked and BlockedBy are set and cleared together;
// the schema enforces the pairing with a CHECK constraint.
type LockState struct {
	Blocked   *time.Time `json:"blocked,omitempty"`
	BlockedBy *string    `json:"blocked_by,omitempty"`
}

// Holder returns the active lock holder and acquisition time. A lock
// older than ttl is treated as abandoned and reported as free; ttl <= 0
// disables expiry.
func (l LockState) Holder(now time.Time, ttl time.Duration) (userID string, since time.Time, held bool) {
	if l.Blocked == nil || l.BlockedBy == nil {
		return "", time.Time{}, false
	}

	if ttl > 0 && now.Sub(*l.Blocked) > ttl {
		return "", time.Time{}, false
	}

	return *l.BlockedBy, *l.Blocked, true
}

// ConflictsWith reports whether the lock blocks an edit by userID, and
// if so returns the conflict error. Re-entrant editing by the holder is
// allowed.
func (l LockState) ConflictsWith(kind EntityKind, entityID, userID string, now time.Time, ttl time.Duration) error {
	holder, since, held := l.Holder(now, ttl)
	if !held || holder == userID {
		return nil
	}

	return &LockConflictError{
		Kind:     kind,
		EntityID: entityID,
		LockedBy: holder,
		LockedAt: since,
	}
}
