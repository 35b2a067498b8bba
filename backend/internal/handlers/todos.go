package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/services"
	"todo-manager/backend/internal/utils"
)

type TodoHandler struct {
	db          *gorm.DB
	todoService services.TodoService
}

func NewTodoHandler(db *gorm.DB, todoService services.TodoService) *TodoHandler {
	return &TodoHandler{db: db, todoService: todoService}
}

// Missing and foreign todos both answer 403.
func handleTodoError(c *gin.Context, err error) {
	respondServiceError(c, err, http.StatusForbidden, http.StatusBadRequest)
}

func (h *TodoHandler) CreateTodo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	var todo *models.Todo
	err := inTx(c, h.db, func(tx *gorm.DB) error {
		var err error
		todo, err = h.todoService.Create(tx, userID, services.CreateTodoInput{
			Title:       input.Title,
			Description: input.Description,
			Status:      input.Status,
		})
		return err
	})
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (h *TodoHandler) GetTodos(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page := utils.ParseIntDefault(c.Query("page"), 1)
	perPage := utils.ParseIntDefault(c.Query("per_page"), services.DefaultPerPage)

	var result *services.TodoPage
	err := inTx(c, h.db, func(tx *gorm.DB) error {
		var err error
		result, err = h.todoService.List(tx, userID, page, perPage)
		return err
	})
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TodoHandler) GetTodo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "todo_id")
	if !ok {
		return
	}

	var todo *models.Todo
	err := inTx(c, h.db, func(tx *gorm.DB) error {
		var err error
		todo, err = h.todoService.Get(tx, id, userID)
		return err
	})
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "todo_id")
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		badBody(c, err)
		return
	}

	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Completed   *bool   `json:"completed"`
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		badBody(c, err)
		return
	}

	// A present "description": null clears the field; an absent key keeps it.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		badBody(c, err)
		return
	}
	v, present := fields["description"]
	clearDescription := present && string(v) == "null"

	var todo *models.Todo
	err = inTx(c, h.db, func(tx *gorm.DB) error {
		var err error
		todo, err = h.todoService.Update(tx, id, userID, services.UpdateTodoInput{
			Title:            input.Title,
			Description:      input.Description,
			ClearDescription: clearDescription,
			Status:           input.Status,
			Completed:        input.Completed,
		})
		return err
	})
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "todo_id")
	if !ok {
		return
	}

	err := inTx(c, h.db, func(tx *gorm.DB) error {
		return h.todoService.Delete(tx, id, userID)
	})
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted"})
}

// BulkTodos serves PUT /todos. Every failure, including no matching
// todos, is a 400.
func (h *TodoHandler) BulkTodos(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input struct {
		TodoIDs []uint `json:"todo_ids"`
		Action  string `json:"action"`
		Status  string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	err := inTx(c, h.db, func(tx *gorm.DB) error {
		return h.todoService.Bulk(tx, userID, input.TodoIDs, input.Action, input.Status)
	})
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bulk operation successful"})
}
