package core

import "time"

// Tracking records who created and last updated a row, and when.
// A nil CreatedByID/UpdatedByID means a system write or a since-deleted user.
type Tracking struct {
	CreatedByID *int64    `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedByID *int64    `json:"updated_by_id"`
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewTracking stamps a freshly created row.
func NewTracking(by *int64) Tracking {
	now := NowFunc()
	return Tracking{
		CreatedByID: by,
		CreatedAt:   now,
		UpdatedByID: by,
		UpdatedAt:   now,
	}
}

// Touch stamps an update.
func (t *Tracking) Touch(by *int64) {
	t.UpdatedByID = by
	t.UpdatedAt = NowFunc()
}

// Forget nulls every reference to the given user, mirroring ON DELETE SET NULL.
func (t *Tracking) Forget(userID int64) {
	if t.CreatedByID != nil && *t.CreatedByID == userID {
		t.CreatedByID = nil
	}
	if t.UpdatedByID != nil && *t.UpdatedByID == userID {
		t.UpdatedByID = nil
	}
}
