package models

import "time"

// IdempotencyKey stores the first completed response for a given request hash.
// Keys are scoped to the calling account.
type IdempotencyKey struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Key            string     `json:"key" gorm:"size:128;uniqueIndex:idx_idempotency_user_key,priority:2"` // header value
	UserID         string     `json:"user_id" gorm:"size:36;uniqueIndex:idx_idempotency_user_key,priority:1"`
	RequestHash    string     `json:"request_hash" gorm:"size:64"` // sha256 of method|path|body|user
	Method         string     `json:"method" gorm:"size:10"`
	Path           string     `json:"path" gorm:"size:255"`
	ResponseStatus int        `json:"response_status"` // 0 => not completed yet
	ResponseBody   []byte     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}
