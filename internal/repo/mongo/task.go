package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KarpovAlexandrGo/task-tracker/internal/entity"
	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type taskDocument struct {
	ID          string    `bson:"_id"`
	User        string    `bson:"user"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	DueDate     time.Time `bson:"dueDate"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func (d taskDocument) toEntity() (entity.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return entity.Task{}, fmt.Errorf("corrupted task id %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.User)
	if err != nil {
		return entity.Task{}, fmt.Errorf("corrupted task owner %q: %w", d.User, err)
	}
	status, err := entity.ParseStatus(d.Status)
	if err != nil {
		return entity.Task{}, err
	}
	return entity.Task{
		ID:          id,
		Owner:       owner,
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate.UTC(),
		Status:      status,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

type TaskRepository struct {
	coll   *mongo.Collection
	logger *logrus.Logger
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{
		coll:   db.Collection(tasksCollection),
		logger: logger.Log,
	}
}

func (r *TaskRepository) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := taskDocument{
		ID:          task.ID.String(),
		User:        task.Owner.String(),
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate.UTC().Truncate(time.Millisecond),
		Status:      task.Status.String(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Create",
			"task_id": doc.ID,
		}).WithError(err).Error("Failed to create task")
		return entity.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return doc.toEntity()
}

func (r *TaskRepository) Get(ctx context.Context, id uuid.UUID) (entity.Task, error) {
	return r.findOne(ctx, "Get", bson.M{"_id": id.String()})
}

func (r *TaskRepository) GetOwned(ctx context.Context, id, owner uuid.UUID) (entity.Task, error) {
	return r.findOne(ctx, "GetOwned", bson.M{"_id": id.String(), "user": owner.String()})
}

func (r *TaskRepository) findOne(ctx context.Context, method string, filter bson.M) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc taskDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.Task{}, entity.ErrNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"method":  method,
			"task_id": filter["_id"],
		}).WithError(err).Error("Failed to get task")
		return entity.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return doc.toEntity()
}

func (r *TaskRepository) List(ctx context.Context, owner uuid.UUID, filter entity.TaskFilter) ([]entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := bson.M{"user": owner.String()}
	if filter.Status != nil {
		query["status"] = filter.Status.String()
	}

	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method": "List",
			"owner":  owner.String(),
		}).WithError(err).Error("Failed to list tasks")
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]entity.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task entity.Task) (entity.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"_id": task.ID.String(), "user": task.Owner.String()}
	update := bson.M{"$set": bson.M{
		"title":       task.Title,
		"description": task.Description,
		"dueDate":     task.DueDate.UTC().Truncate(time.Millisecond),
		"status":      task.Status.String(),
		"updatedAt":   time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.WithFields(logrus.Fields{
				"method":  "Update",
				"task_id": task.ID.String(),
			}).Warn("Task not found for update")
			return entity.Task{}, entity.ErrNotFound
		}
		return entity.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return doc.toEntity()
}

func (r *TaskRepository) Delete(ctx context.Context, id, owner uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String(), "user": owner.String()})
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Delete",
			"task_id": id.String(),
		}).WithError(err).Error("Failed to delete task")
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}
