package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"todo-manager/backend/internal/models"
)

// Every Todo or Item read on behalf of a user goes through these helpers.
// A row that exists but belongs to someone else is reported exactly like a
// row that does not exist.

func findOwnedTodo(db *gorm.DB, todoID, userID uint) (*models.Todo, error) {
	var todo models.Todo
	err := db.Where("id = ? AND user_id = ?", todoID, userID).First(&todo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(msgTodoNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find todo %d: %w", todoID, err)
	}
	return &todo, nil
}

func ownedItems(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&models.Item{}).
		Joins("JOIN todos ON todos.id = items.todo_id").
		Where("todos.user_id = ?", userID)
}

func findOwnedItem(db *gorm.DB, itemID, userID uint) (*models.Item, error) {
	var item models.Item
	err := ownedItems(db, userID).
		Select("items.*").
		Where("items.id = ?", itemID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(msgItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find item %d: %w", itemID, err)
	}
	return &item, nil
}

// findOwnedItemInTodo additionally requires the item to sit under todoID.
func findOwnedItemInTodo(db *gorm.DB, todoID, itemID, userID uint) (*models.Item, error) {
	var item models.Item
	err := ownedItems(db, userID).
		Select("items.*").
		Where("items.id = ? AND items.todo_id = ?", itemID, todoID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(msgItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find item %d in todo %d: %w", itemID, todoID, err)
	}
	return &item, nil
}

// ownedTodoIDs filters ids down to the requester's todos.
func ownedTodoIDs(db *gorm.DB, ids []uint, userID uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var owned []uint
	err := db.Model(&models.Todo{}).
		Where("id IN ? AND user_id = ?", ids, userID).
		Order("id").
		Pluck("id", &owned).Error
	if err != nil {
		return nil, fmt.Errorf("filter owned todos: %w", err)
	}
	return owned, nil
}

func ownedItemIDs(db *gorm.DB, ids []uint, userID uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var owned []uint
	err := ownedItems(db, userID).
		Where("items.id IN ?", ids).
		Order("items.id").
		Pluck("items.id", &owned).Error
	if err != nil {
		return nil, fmt.Errorf("filter owned items: %w", err)
	}
	return owned, nil
}
