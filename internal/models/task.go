package models

import "time"

// Task is a housekeeping or maintenance job.
type Task struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"size:1024" json:"description"`
	Status      TaskStatus `gorm:"size:16;not null;default:OPEN;index" json:"status"`
	Priority    int        `gorm:"not null;default:0" json:"priority"`
	RoomID      *int64     `gorm:"index" json:"room_id"`
	AssignedTo  string     `gorm:"size:128" json:"assigned_to"`
	DueAt       *time.Time `json:"due_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
