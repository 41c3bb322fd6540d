package service

import (
	"context"
	"strings"
	"time"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
)

type TaskService struct {
	store  domain.Store
	now    func() time.Time
	logger *zerolog.Logger
}

var _ domain.TaskService = (*TaskService)(nil)

func NewTaskService(store domain.Store, logger *zerolog.Logger) *TaskService {
	return &TaskService{store: store, now: time.Now, logger: nopLogger(logger)}
}

func (s *TaskService) Create(ctx context.Context, task *models.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return domain.Invalid("task title is required")
	}
	if task.Status == "" {
		task.Status = models.TaskOpen
	}
	if !task.Status.Valid() {
		return domain.Invalid("unknown task status %q", task.Status)
	}
	if task.RoomID != nil {
		if _, err := s.store.GetRoom(ctx, *task.RoomID); err != nil {
			return err
		}
	}
	s.stampCompletion(task)
	return s.store.CreateTask(ctx, task)
}

func (s *TaskService) List(ctx context.Context, status models.TaskStatus) ([]*models.Task, error) {
	if status != "" && !status.Valid() {
		return nil, domain.Invalid("unknown task status %q", status)
	}
	return s.store.ListTasks(ctx, status)
}

func (s *TaskService) Update(ctx context.Context, id int64, in domain.TaskUpdate) (*models.Task, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, domain.Invalid("unknown task status %q", *in.Status)
	}

	var task *models.Task
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		t, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if in.Status != nil {
			t.Status = *in.Status
		}
		if in.AssignedTo != nil {
			t.AssignedTo = strings.TrimSpace(*in.AssignedTo)
		}
		if in.Priority != nil {
			t.Priority = *in.Priority
		}
		if in.DueAt != nil {
			due := in.DueAt.UTC()
			t.DueAt = &due
		}
		s.stampCompletion(t)
		if err := tx.UpdateTask(ctx, t); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// stampCompletion keeps CompletedAt set exactly while the task is DONE.
func (s *TaskService) stampCompletion(t *models.Task) {
	if t.Status != models.TaskDone {
		t.CompletedAt = nil
		return
	}
	if t.CompletedAt == nil {
		now := s.now().UTC()
		t.CompletedAt = &now
	}
}
