package database

import (
	"context"

	"hotelpos/internal/models"
)

func (db *DB) CreateTask(ctx context.Context, task *models.Task) error {
	if task.Status == "" {
		task.Status = models.TaskOpen
	}
	return translate(db.conn(ctx).Create(task).Error, "task")
}

func (db *DB) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	var task models.Task
	if err := db.conn(ctx).First(&task, id).Error; err != nil {
		return nil, translate(err, "task")
	}
	return &task, nil
}

func (db *DB) ListTasks(ctx context.Context, status models.TaskStatus) ([]*models.Task, error) {
	q := db.conn(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var tasks []*models.Task
	if err := q.Order("priority DESC, id").Find(&tasks).Error; err != nil {
		return nil, translate(err, "task")
	}
	return tasks, nil
}

func (db *DB) UpdateTask(ctx context.Context, task *models.Task) error {
	res := db.conn(ctx).Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
		"title":        task.Title,
		"description":  task.Description,
		"status":       task.Status,
		"priority":     task.Priority,
		"room_id":      task.RoomID,
		"assigned_to":  task.AssignedTo,
		"due_at":       task.DueAt,
		"completed_at": task.CompletedAt,
	})
	return notFoundIfNone(res, "task", task.ID)
}
