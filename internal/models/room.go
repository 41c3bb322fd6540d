package models

import "time"

type Room struct {
	ID        int64      `gorm:"primaryKey" json:"id" yaml:"-"`
	Number    string     `gorm:"uniqueIndex;size:16;not null" json:"number" yaml:"number"`
	Type      string     `gorm:"size:64;not null" json:"type" yaml:"type"`
	Variant   string     `gorm:"size:64" json:"variant" yaml:"variant"`
	Status    RoomStatus `gorm:"size:16;not null;default:VACANT;index" json:"status" yaml:"status"`
	Capacity  int        `json:"capacity" yaml:"capacity"`
	Floor     int        `json:"floor" yaml:"floor"`
	CreatedAt time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"-"`
}

func (s RoomStatus) Valid() bool {
	return s == RoomVacant || s == RoomOccupied || s == RoomMaintenance
}
