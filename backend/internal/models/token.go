package models

import (
	"time"
)

// TokenBlocklist records a revoked token by its jti claim. A matching row
// makes a presented token invalid.
type TokenBlocklist struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	JTI       string    `json:"jti" gorm:"column:jti;size:36;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (TokenBlocklist) TableName() string {
	return "token_blocklist"
}
