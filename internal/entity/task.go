package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound возвращается хранилищем, если запись отсутствует.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate возвращается хранилищем при нарушении уникальности.
	ErrDuplicate = errors.New("record already exists")
)

// Task описывает задачу пользователя.
type Task struct {
	ID          uuid.UUID `json:"_id"`
	Owner       uuid.UUID `json:"user"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnedBy сообщает, принадлежит ли задача пользователю.
func (t Task) OwnedBy(owner uuid.UUID) bool {
	return t.Owner == owner
}

// TaskFilter ограничивает выборку задач владельца.
type TaskFilter struct {
	Status *Status
}
