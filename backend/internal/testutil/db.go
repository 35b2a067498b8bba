package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"
)

// NewTestDB opens a file-backed SQLite database in the test's temp dir with
// all migrations applied. It is closed when the test completes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	pc := database.DefaultPoolConfig()
	pc.Driver = config.DriverSQLite
	pc.DSN = "file:" + filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	pc.LogLevel = logger.Silent

	pool, err := database.NewDatabasePool(pc)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})

	err = repositories.RunMigrations(pool.DB, &repositories.MigrationConfig{
		Driver:     config.DriverSQLite,
		DBName:     "test",
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return pool.DB
}

// CreateUser inserts a user whose password is "password123".
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return &user
}

func CreateTodo(t *testing.T, db *gorm.DB, userID uint, title string) *models.Todo {
	t.Helper()

	todo := models.Todo{Title: title, Status: models.TodoStatusInProgress, UserID: userID}
	if err := db.Create(&todo).Error; err != nil {
		t.Fatalf("creating todo %q: %v", title, err)
	}
	return &todo
}

func CreateItem(t *testing.T, db *gorm.DB, todoID uint, content string) *models.Item {
	t.Helper()

	item := models.Item{Content: content, Status: models.ItemStatusPending, TodoID: todoID}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("creating item %q: %v", content, err)
	}
	return &item
}
