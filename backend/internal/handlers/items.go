package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/services"
	"todo-manager/backend/internal/utils"
)

type ItemHandler struct {
	db          *gorm.DB
	itemService services.ItemService
}

func NewItemHandler(db *gorm.DB, itemService services.ItemService) *ItemHandler {
	return &ItemHandler{db: db, itemService: itemService}
}

func handleItemError(c *gin.Context, err error) {
	respondServiceError(c, err, http.StatusNotFound, http.StatusBadRequest)
}

func (h *ItemHandler) GetItems(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	todoID, ok := pathID(c, "todo_id")
	if !ok {
		return
	}

	page := utils.ParseIntDefault(c.Query("page"), 1)
	perPage := utils.ParseIntDefault(c.Query("per_page"), services.DefaultPerPage)

	var result *services.ItemPage
	err := inTx(c, h.db, func(tx *gorm.DB) error {
		var err error
		result, err = h.itemService.ListForTodo(tx, todoID, userID, page, perPage)
		return err
	})
	if err != nil {
		handleItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	todoID, ok := pathID(c, "todo_id")
	if !ok {
		return
	}

	var input struct {
		Content string       `json:"content"`
		Status  *string      `json:"status"`
		DueDate *models.Date `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	var item *models.Item
	err := inTx(c, h.db, func(tx *gorm.DB) error {
		var err error
		item, err = h.itemService.Create(tx, todoID, userID, services.CreateItemInput{
			Content: input.Content,
			Status:  input.Status,
			DueDate: input.DueDate,
		})
		return err
	})
	if err != nil {
		handleItemError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) GetItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	todoID, ok := pathID(c, "todo_id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}

	var item *models.Item
	err := inTx(c, h.db, func(tx *gorm.DB) error {
		var err error
		item, err = h.itemService.Get(tx, todoID, itemID, userID)
		return err
	})
	if err != nil {
		handleItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	todoID, ok := pathID(c, "todo_id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}

	var input struct {
		Content *string      `json:"content"`
		Status  *string      `json:"status"`
		DueDate *models.Date `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	var item *models.Item
	err := inTx(c, h.db, func(tx *gorm.DB) error {
		var err error
		item, err = h.itemService.Update(tx, todoID, itemID, userID, services.UpdateItemInput{
			Content: input.Content,
			Status:  input.Status,
			DueDate: input.DueDate,
		})
		return err
	})
	if err != nil {
		handleItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	todoID, ok := pathID(c, "todo_id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}

	err := inTx(c, h.db, func(tx *gorm.DB) error {
		return h.itemService.Delete(tx, todoID, itemID, userID)
	})
	if err != nil {
		handleItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Item %d deleted successfully", itemID),
	})
}

// BulkItems serves PUT /todos/items/bulk. action is "delete" or the status
// to set on every matched item.
func (h *ItemHandler) BulkItems(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		ItemIDs []uint `json:"item_ids"`
		Action  string `json:"action"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || len(input.ItemIDs) == 0 {
		respondError(c, http.StatusBadRequest, codeValidation, "item_ids must be a non-empty list of integers")
		return
	}

	err := inTx(c, h.db, func(tx *gorm.DB) error {
		return h.itemService.Bulk(tx, userID, input.ItemIDs, input.Action)
	})
	if err != nil {
		respondServiceError(c, err, http.StatusNotFound, http.StatusNotFound)
		return
	}

	ids := formatIDs(input.ItemIDs)
	message := fmt.Sprintf("Items %s updated to '%s' successfully", ids, input.Action)
	if input.Action == services.BulkActionDelete {
		message = fmt.Sprintf("Items %s deleted successfully", ids)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// formatIDs renders ids as "[1, 2, 3]".
func formatIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
