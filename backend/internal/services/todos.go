package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"todo-manager/backend/internal/models"
)

const (
	BulkActionDelete       = "delete"
	BulkActionUpdateStatus = "update_status"
)

type CreateTodoInput struct {
	Title       string
	Description *string
	Status      *string
}

// UpdateTodoInput is a partial update; nil fields are left untouched.
// ClearDescription sets the description to NULL and wins over Description.
type UpdateTodoInput struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Status           *string
	Completed        *bool
}

type TodoPage struct {
	Todos []models.Todo `json:"todos"`
	Page
}

type TodoService interface {
	Create(db *gorm.DB, userID uint, in CreateTodoInput) (*models.Todo, error)
	Get(db *gorm.DB, id, userID uint) (*models.Todo, error)
	List(db *gorm.DB, userID uint, page, perPage int) (*TodoPage, error)
	Update(db *gorm.DB, id, userID uint, in UpdateTodoInput) (*models.Todo, error)
	Delete(db *gorm.DB, id, userID uint) error
	Bulk(db *gorm.DB, userID uint, ids []uint, action, status string) error
}

type TodoServiceImpl struct{}

func NewTodoService() *TodoServiceImpl {
	return &TodoServiceImpl{}
}

func (s *TodoServiceImpl) Create(db *gorm.DB, userID uint, in CreateTodoInput) (*models.Todo, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("Missing field: title")
	}

	todo := models.Todo{
		Title:       in.Title,
		Description: in.Description,
		Status:      models.TodoStatusInProgress,
		UserID:      userID,
		Items:       []models.Item{},
	}
	if in.Status != nil && *in.Status != "" {
		todo.Status = *in.Status
	}

	if err := db.Create(&todo).Error; err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return &todo, nil
}

func (s *TodoServiceImpl) Get(db *gorm.DB, id, userID uint) (*models.Todo, error) {
	todo, err := findOwnedTodo(db, id, userID)
	if err != nil {
		return nil, err
	}
	if err := loadItems(db, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// List has no per_page cap, unlike item listing.
func (s *TodoServiceImpl) List(db *gorm.DB, userID uint, page, perPage int) (*TodoPage, error) {
	page, perPage = normalizePage(page, perPage, 0)

	scope := db.Model(&models.Todo{}).Where("user_id = ?", userID)

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count todos: %w", err)
	}

	result := &TodoPage{Todos: []models.Todo{}, Page: newPage(total, page, perPage)}
	if result.pastEnd() {
		return result, nil
	}

	todos := []models.Todo{}
	err := db.Where("user_id = ?", userID).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("items.id") }).
		Order("id").
		Offset(offset(page, perPage)).
		Limit(perPage).
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	for i := range todos {
		if todos[i].Items == nil {
			todos[i].Items = []models.Item{}
		}
	}

	result.Todos = todos
	return result, nil
}

func (s *TodoServiceImpl) Update(db *gorm.DB, id, userID uint, in UpdateTodoInput) (*models.Todo, error) {
	todo, err := findOwnedTodo(db, id, userID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, invalid("Missing field: title")
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	switch {
	case in.ClearDescription:
		updates["description"] = nil
	case in.Description != nil:
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Completed != nil {
		updates["completed"] = *in.Completed
	}

	if len(updates) > 0 {
		if err := db.Model(todo).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update todo %d: %w", id, err)
		}
	}

	return s.Get(db, id, userID)
}

func (s *TodoServiceImpl) Delete(db *gorm.DB, id, userID uint) error {
	todo, err := findOwnedTodo(db, id, userID)
	if err != nil {
		return err
	}
	return deleteTodos(db, []uint{todo.ID})
}

// Bulk applies action to the requester's todos among ids. Ids owned by
// other users or missing are dropped without error.
func (s *TodoServiceImpl) Bulk(db *gorm.DB, userID uint, ids []uint, action, status string) error {
	switch action {
	case BulkActionDelete:
	case BulkActionUpdateStatus:
		if status == "" {
			return invalid("Missing status for bulk update")
		}
	default:
		return invalid("Invalid action")
	}

	owned, err := ownedTodoIDs(db, ids, userID)
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		return notFound("No matching todos found")
	}

	if action == BulkActionDelete {
		return deleteTodos(db, owned)
	}

	err = db.Model(&models.Todo{}).Where("id IN ?", owned).Update("status", status).Error
	if err != nil {
		return fmt.Errorf("bulk update todo status: %w", err)
	}
	return nil
}

// deleteTodos removes the items first so the cascade holds even where the
// database does not enforce foreign keys.
func deleteTodos(db *gorm.DB, ids []uint) error {
	if err := db.Where("todo_id IN ?", ids).Delete(&models.Item{}).Error; err != nil {
		return fmt.Errorf("delete items of todos: %w", err)
	}
	if err := db.Where("id IN ?", ids).Delete(&models.Todo{}).Error; err != nil {
		return fmt.Errorf("delete todos: %w", err)
	}
	return nil
}

func loadItems(db *gorm.DB, todo *models.Todo) error {
	items := []models.Item{}
	if err := db.Where("todo_id = ?", todo.ID).Order("id").Find(&items).Error; err != nil {
		return fmt.Errorf("load items of todo %d: %w", todo.ID, err)
	}
	todo.Items = items
	return nil
}
