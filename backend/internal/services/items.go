package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"todo-manager/backend/internal/models"
)

type CreateItemInput struct {
	Content string
	Status  *string
	DueDate *models.Date
}

type UpdateItemInput struct {
	Content *string
	Status  *string
	DueDate *models.Date
}

type ItemPage struct {
	Items []models.Item `json:"items"`
	Page
}

type ItemService interface {
	Create(db *gorm.DB, todoID, userID uint, in CreateItemInput) (*models.Item, error)
	Get(db *gorm.DB, todoID, itemID, userID uint) (*models.Item, error)
	GetByID(db *gorm.DB, itemID, userID uint) (*models.Item, error)
	ListForTodo(db *gorm.DB, todoID, userID uint, page, perPage int) (*ItemPage, error)
	Update(db *gorm.DB, todoID, itemID, userID uint, in UpdateItemInput) (*models.Item, error)
	UpdateStatus(db *gorm.DB, itemID, userID uint, status string) (*models.Item, error)
	Delete(db *gorm.DB, todoID, itemID, userID uint) error
	DeleteByID(db *gorm.DB, itemID, userID uint) error
	Bulk(db *gorm.DB, userID uint, ids []uint, action string) error
}

type ItemServiceImpl struct{}

func NewItemService() *ItemServiceImpl {
	return &ItemServiceImpl{}
}

func invalidStatus() error {
	return invalid(fmt.Sprintf("Invalid status. Must be one of [%s]", strings.Join(models.ItemStatuses(), ", ")))
}

func (s *ItemServiceImpl) Create(db *gorm.DB, todoID, userID uint, in CreateItemInput) (*models.Item, error) {
	todo, err := findOwnedTodo(db, todoID, userID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Content) == "" {
		return nil, invalid("Missing field: content")
	}

	item := models.Item{
		Content: in.Content,
		Status:  models.ItemStatusPending,
		DueDate: in.DueDate,
		TodoID:  todo.ID,
	}
	if in.Status != nil {
		if !models.IsValidItemStatus(*in.Status) {
			return nil, invalidStatus()
		}
		item.Status = *in.Status
	}

	if err := db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &item, nil
}

func (s *ItemServiceImpl) Get(db *gorm.DB, todoID, itemID, userID uint) (*models.Item, error) {
	return findOwnedItemInTodo(db, todoID, itemID, userID)
}

func (s *ItemServiceImpl) GetByID(db *gorm.DB, itemID, userID uint) (*models.Item, error) {
	return findOwnedItem(db, itemID, userID)
}

// ListForTodo pages through a todo's items; per_page is capped at
// MaxItemsPerPage.
func (s *ItemServiceImpl) ListForTodo(db *gorm.DB, todoID, userID uint, page, perPage int) (*ItemPage, error) {
	if _, err := findOwnedTodo(db, todoID, userID); err != nil {
		return nil, err
	}

	page, perPage = normalizePage(page, perPage, MaxItemsPerPage)

	var total int64
	if err := db.Model(&models.Item{}).Where("todo_id = ?", todoID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	result := &ItemPage{Items: []models.Item{}, Page: newPage(total, page, perPage)}
	if result.pastEnd() {
		return result, nil
	}

	items := []models.Item{}
	err := db.Where("todo_id = ?", todoID).
		Order("id").
		Offset(offset(page, perPage)).
		Limit(perPage).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	result.Items = items
	return result, nil
}

func (s *ItemServiceImpl) Update(db *gorm.DB, todoID, itemID, userID uint, in UpdateItemInput) (*models.Item, error) {
	item, err := findOwnedItemInTodo(db, todoID, itemID, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, invalid("Missing field: content")
		}
		updates["content"] = *in.Content
	}
	if in.Status != nil {
		if !models.IsValidItemStatus(*in.Status) {
			return nil, invalidStatus()
		}
		updates["status"] = *in.Status
	}
	if in.DueDate != nil {
		updates["due_date"] = *in.DueDate
	}

	return s.apply(db, item, updates)
}

func (s *ItemServiceImpl) UpdateStatus(db *gorm.DB, itemID, userID uint, status string) (*models.Item, error) {
	item, err := findOwnedItem(db, itemID, userID)
	if err != nil {
		return nil, err
	}
	if !models.IsValidItemStatus(status) {
		return nil, invalidStatus()
	}
	return s.apply(db, item, map[string]interface{}{"status": status})
}

func (s *ItemServiceImpl) apply(db *gorm.DB, item *models.Item, updates map[string]interface{}) (*models.Item, error) {
	if len(updates) > 0 {
		if err := db.Model(item).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update item %d: %w", item.ID, err)
		}
	}

	var fresh models.Item
	if err := db.First(&fresh, item.ID).Error; err != nil {
		return nil, fmt.Errorf("reload item %d: %w", item.ID, err)
	}
	return &fresh, nil
}

func (s *ItemServiceImpl) Delete(db *gorm.DB, todoID, itemID, userID uint) error {
	item, err := findOwnedItemInTodo(db, todoID, itemID, userID)
	if err != nil {
		return err
	}
	return deleteItem(db, item)
}

func (s *ItemServiceImpl) DeleteByID(db *gorm.DB, itemID, userID uint) error {
	item, err := findOwnedItem(db, itemID, userID)
	if err != nil {
		return err
	}
	return deleteItem(db, item)
}

func deleteItem(db *gorm.DB, item *models.Item) error {
	if err := db.Delete(&models.Item{}, item.ID).Error; err != nil {
		return fmt.Errorf("delete item %d: %w", item.ID, err)
	}
	return nil
}

// Bulk deletes the requester's items among ids, or sets them all to the
// status named by action.
func (s *ItemServiceImpl) Bulk(db *gorm.DB, userID uint, ids []uint, action string) error {
	if action != BulkActionDelete && !models.IsValidItemStatus(action) {
		return invalid(fmt.Sprintf("Invalid action. Must be one of [%s] or 'delete'", strings.Join(models.ItemStatuses(), ", ")))
	}

	owned, err := ownedItemIDs(db, ids, userID)
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		return notFound(msgItemNotFound)
	}

	if action == BulkActionDelete {
		if err := db.Where("id IN ?", owned).Delete(&models.Item{}).Error; err != nil {
			return fmt.Errorf("bulk delete items: %w", err)
		}
		return nil
	}

	if err := db.Model(&models.Item{}).Where("id IN ?", owned).Update("status", action).Error; err != nil {
		return fmt.Errorf("bulk update item status: %w", err)
	}
	return nil
}
