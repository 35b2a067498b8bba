package models

// Conventional Todo statuses. Todo.Status is free-form and these are only
// defaults and suggestions.
const (
	TodoStatusInProgress        = "In Progress"
	TodoStatusCompleted         = "Completed"
	TodoStatusPartiallyComplete = "Partially Complete"
)

// Item statuses form a closed set; nothing else is ever persisted.
const (
	ItemStatusPending            = "Pending"
	ItemStatusPartiallyCompleted = "Partially Completed"
	ItemStatusCompleted          = "Completed"
)

var itemStatuses = []string{
	ItemStatusPending,
	ItemStatusPartiallyCompleted,
	ItemStatusCompleted,
}

// ItemStatuses returns the allowed item statuses in display order.
func ItemStatuses() []string {
	out := make([]string, len(itemStatuses))
	copy(out, itemStatuses)
	return out
}

func IsValidItemStatus(status string) bool {
	for _, s := range itemStatuses {
		if s == status {
			return true
		}
	}
	return false
}
