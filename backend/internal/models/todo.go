package models

import (
	"time"
)

// Todo is owned by exactly one user. Status and Completed are set
// independently; nothing keeps them consistent with each other.
type Todo struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Description *string   `json:"description"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'In Progress'"`
	Completed   bool      `json:"completed" gorm:"not null;default:false"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Items []Item `json:"items" gorm:"foreignKey:TodoID;constraint:OnDelete:CASCADE"`
}
