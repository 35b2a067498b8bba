package services

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/testutil"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTodoCreate(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	svc := NewTodoService()

	todo, err := svc.Create(db, alice.ID, CreateTodoInput{Title: "T1"})
	require.NoError(t, err)

	assert.NotZero(t, todo.ID)
	assert.Equal(t, "T1", todo.Title)
	assert.Nil(t, todo.Description)
	assert.Equal(t, models.TodoStatusInProgress, todo.Status)
	assert.False(t, todo.Completed)
	assert.Equal(t, alice.ID, todo.UserID)
	assert.Empty(t, todo.Items)
}

func TestTodoCreate_WithDescriptionAndStatus(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")

	todo, err := NewTodoService().Create(db, alice.ID, CreateTodoInput{
		Title:       "T1",
		Description: strPtr("details"),
		Status:      strPtr("Someday"),
	})
	require.NoError(t, err)

	got, err := NewTodoService().Get(db, todo.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Description)
	assert.Equal(t, "details", *got.Description)
	assert.Equal(t, "Someday", got.Status)
}

func TestTodoCreate_MissingTitle(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")

	for _, title := range []string{"", "   "} {
		_, err := NewTodoService().Create(db, alice.ID, CreateTodoInput{Title: title})

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "Missing field: title", verr.Message)
	}

	var count int64
	db.Model(&models.Todo{}).Count(&count)
	assert.Zero(t, count)
}

func TestTodoGet_OwnershipIsNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	todo := testutil.CreateTodo(t, db, alice.ID, "T1")
	svc := NewTodoService()

	_, errForeign := svc.Get(db, todo.ID, bob.ID)
	_, errMissing := svc.Get(db, 9999, bob.ID)

	assert.ErrorIs(t, errForeign, ErrNotFound)
	assert.ErrorIs(t, errMissing, ErrNotFound)
	assert.Equal(t, errMissing.Error(), errForeign.Error())
	assert.Equal(t, msgTodoNotFound, errForeign.Error())
}

func TestTodoGet_EmbedsItems(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	todo := testutil.CreateTodo(t, db, alice.ID, "T1")
	testutil.CreateItem(t, db, todo.ID, "a")
	testutil.CreateItem(t, db, todo.ID, "b")

	got, err := NewTodoService().Get(db, todo.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "a", got.Items[0].Content)
}

func TestTodoList_Pagination(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	for i := 1; i <= 25; i++ {
		testutil.CreateTodo(t, db, alice.ID, fmt.Sprintf("T%d", i))
	}
	testutil.CreateTodo(t, db, bob.ID, "not alice's")
	svc := NewTodoService()

	p, err := svc.List(db, alice.ID, 3, 10)
	require.NoError(t, err)
	assert.Len(t, p.Todos, 5)
	assert.Equal(t, "T21", p.Todos[0].Title)
	assert.Equal(t, Page{Total: 25, Page: 3, Pages: 3, PerPage: 10}, p.Page)

	p, err = svc.List(db, alice.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, p.Todos, 10)
	assert.Equal(t, 1, p.Page.Page)
	assert.Equal(t, 10, p.PerPage)

	p, err = svc.List(db, alice.ID, 9, 10)
	require.NoError(t, err)
	assert.Empty(t, p.Todos)
	assert.EqualValues(t, 25, p.Total)

	p, err = svc.List(db, alice.ID, 1, 500)
	require.NoError(t, err)
	assert.Len(t, p.Todos, 25)
	assert.Equal(t, 500, p.PerPage)
}

func TestTodoList_LargePageValues(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	for i := 1; i <= 3; i++ {
		testutil.CreateTodo(t, db, alice.ID, fmt.Sprintf("T%d", i))
	}
	svc := NewTodoService()

	p, err := svc.List(db, alice.ID, 922337203685477582, 10)
	require.NoError(t, err)
	assert.NotNil(t, p.Todos)
	assert.Empty(t, p.Todos)
	assert.Equal(t, Page{Total: 3, Page: 922337203685477582, Pages: 1, PerPage: 10}, p.Page)

	p, err = svc.List(db, alice.ID, 1, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, p.Todos, 3)
	assert.Equal(t, 1, p.Pages)

	p, err = svc.List(db, alice.ID, math.MaxInt, math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, p.Todos)
	assert.Equal(t, 1, p.Pages)
}

func TestTodoUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	todo := testutil.CreateTodo(t, db, alice.ID, "T1")
	svc := NewTodoService()

	updated, err := svc.Update(db, todo.ID, alice.ID, UpdateTodoInput{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "T1", updated.Title)
	assert.Equal(t, models.TodoStatusInProgress, updated.Status)

	updated, err = svc.Update(db, todo.ID, alice.ID, UpdateTodoInput{
		Title:       strPtr("T2"),
		Description: strPtr("d"),
		Status:      strPtr(models.TodoStatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "d", *updated.Description)
	assert.Equal(t, models.TodoStatusCompleted, updated.Status)
	assert.True(t, updated.Completed)
}

func TestTodoUpdate_ClearDescription(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	todo := testutil.CreateTodo(t, db, alice.ID, "T1")
	svc := NewTodoService()

	_, err := svc.Update(db, todo.ID, alice.ID, UpdateTodoInput{Description: strPtr("d")})
	require.NoError(t, err)

	updated, err := svc.Update(db, todo.ID, alice.ID, UpdateTodoInput{Title: strPtr("T2")})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "d", *updated.Description)

	updated, err = svc.Update(db, todo.ID, alice.ID, UpdateTodoInput{ClearDescription: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)

	var stored models.Todo
	require.NoError(t, db.First(&stored, todo.ID).Error)
	assert.Nil(t, stored.Description)
}

func TestTodoUpdate_BlankTitle(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	todo := testutil.CreateTodo(t, db, alice.ID, "T1")

	_, err := NewTodoService().Update(db, todo.ID, alice.ID, UpdateTodoInput{Title: strPtr("")})

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestTodoUpdate_NotOwned(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	todo := testutil.CreateTodo(t, db, alice.ID, "T1")

	_, err := NewTodoService().Update(db, todo.ID, bob.ID, UpdateTodoInput{Title: strPtr("hijack")})
	assert.ErrorIs(t, err, ErrNotFound)

	var stored models.Todo
	require.NoError(t, db.First(&stored, todo.ID).Error)
	assert.Equal(t, "T1", stored.Title)
}

func TestTodoDelete_CascadesItems(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	todo := testutil.CreateTodo(t, db, alice.ID, "T1")
	other := testutil.CreateTodo(t, db, alice.ID, "T2")
	for i := 0; i < 3; i++ {
		testutil.CreateItem(t, db, todo.ID, "c")
	}
	testutil.CreateItem(t, db, other.ID, "keep")

	require.NoError(t, NewTodoService().Delete(db, todo.ID, alice.ID))

	var items int64
	db.Model(&models.Item{}).Where("todo_id = ?", todo.ID).Count(&items)
	assert.Zero(t, items)

	db.Model(&models.Item{}).Count(&items)
	assert.EqualValues(t, 1, items)
}

func TestTodoDelete_NotOwned(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	todo := testutil.CreateTodo(t, db, alice.ID, "T1")

	assert.ErrorIs(t, NewTodoService().Delete(db, todo.ID, bob.ID), ErrNotFound)

	var count int64
	db.Model(&models.Todo{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestTodoBulk_UpdateStatusSkipsForeign(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	t1 := testutil.CreateTodo(t, db, alice.ID, "T1")
	t2 := testutil.CreateTodo(t, db, alice.ID, "T2")
	t3 := testutil.CreateTodo(t, db, bob.ID, "T3")

	err := NewTodoService().Bulk(db, alice.ID, []uint{t1.ID, t2.ID, t3.ID}, BulkActionUpdateStatus, "Completed")
	require.NoError(t, err)

	var todos []models.Todo
	require.NoError(t, db.Order("id").Find(&todos).Error)
	assert.Equal(t, "Completed", todos[0].Status)
	assert.Equal(t, "Completed", todos[1].Status)
	assert.Equal(t, models.TodoStatusInProgress, todos[2].Status)
}

func TestTodoBulk_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	t1 := testutil.CreateTodo(t, db, alice.ID, "T1")
	t2 := testutil.CreateTodo(t, db, alice.ID, "T2")
	testutil.CreateItem(t, db, t1.ID, "c")

	require.NoError(t, NewTodoService().Bulk(db, alice.ID, []uint{t1.ID, 424242}, BulkActionDelete, ""))

	var ids []uint
	db.Model(&models.Todo{}).Pluck("id", &ids)
	assert.Equal(t, []uint{t2.ID}, ids)

	var items int64
	db.Model(&models.Item{}).Count(&items)
	assert.Zero(t, items)
}

func TestTodoBulk_Errors(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	foreign := testutil.CreateTodo(t, db, bob.ID, "T")
	mine := testutil.CreateTodo(t, db, alice.ID, "M")
	svc := NewTodoService()

	var verr *ValidationError

	err := svc.Bulk(db, alice.ID, []uint{mine.ID}, "archive", "")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Invalid action", verr.Message)

	err = svc.Bulk(db, alice.ID, []uint{mine.ID}, BulkActionUpdateStatus, "")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Missing status for bulk update", verr.Message)

	err = svc.Bulk(db, alice.ID, []uint{foreign.ID}, BulkActionDelete, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "No matching todos found", err.Error())

	err = svc.Bulk(db, alice.ID, nil, BulkActionDelete, "")
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	db.Model(&models.Todo{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestTodoBulk_RollsBackInTransaction(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	t1 := testutil.CreateTodo(t, db, alice.ID, "T1")
	svc := NewTodoService()

	sentinel := errors.New("later step failed")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Bulk(tx, alice.ID, []uint{t1.ID}, BulkActionDelete, ""); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	var count int64
	db.Model(&models.Todo{}).Count(&count)
	assert.EqualValues(t, 1, count)
}
