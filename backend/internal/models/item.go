package models

import (
	"encoding/json"
	"time"
)

type Item struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Content   string    `json:"content" gorm:"size:255;not null"`
	Status    string    `json:"status" gorm:"size:50;not null;default:'Pending'"`
	DueDate   *Date     `json:"due_date"`
	TodoID    uint      `json:"todo_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OverdueAt reports whether the item is past due on the given day: it has a
// due date, is not completed, and the due date is strictly before today.
func (i Item) OverdueAt(today time.Time) bool {
	if i.DueDate == nil || i.Status == ItemStatusCompleted {
		return false
	}
	return i.DueDate.Before(DateOf(today))
}

func (i Item) Overdue() bool {
	return i.OverdueAt(time.Now())
}

// MarshalJSON adds the computed overdue flag.
func (i Item) MarshalJSON() ([]byte, error) {
	type item Item
	return json.Marshal(struct {
		item
		Overdue bool `json:"overdue"`
	}{
		item:    item(i),
		Overdue: i.Overdue(),
	})
}
