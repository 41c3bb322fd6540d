package database

import (
	"context"

	"hotelpos/internal/models"
)

func (db *DB) CreateRoom(ctx context.Context, room *models.Room) error {
	if room.Status == "" {
		room.Status = models.RoomVacant
	}
	return translate(db.conn(ctx).Create(room).Error, "room")
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	if err := db.conn(ctx).First(&room, id).Error; err != nil {
		return nil, translate(err, "room")
	}
	return &room, nil
}

func (db *DB) ListRooms(ctx context.Context) ([]*models.Room, error) {
	var rooms []*models.Room
	if err := db.conn(ctx).Order("number").Find(&rooms).Error; err != nil {
		return nil, translate(err, "room")
	}
	return rooms, nil
}

func (db *DB) UpdateRoomStatus(ctx context.Context, id int64, status models.RoomStatus) error {
	res := db.conn(ctx).Model(&models.Room{}).Where("id = ?", id).Update("status", status)
	return notFoundIfNone(res, "room", id)
}

func (db *DB) CreateReservationItem(ctx context.Context, item *models.ReservationItem) error {
	item.DailyRateUSD = models.Money(item.DailyRateUSD)
	return translate(db.conn(ctx).Create(item).Error, "rate product")
}

func (db *DB) GetReservationItem(ctx context.Context, id int64) (*models.ReservationItem, error) {
	var item models.ReservationItem
	if err := db.conn(ctx).First(&item, id).Error; err != nil {
		return nil, translate(err, "rate product")
	}
	return &item, nil
}

func (db *DB) ListReservationItems(ctx context.Context) ([]*models.ReservationItem, error) {
	var items []*models.ReservationItem
	if err := db.conn(ctx).Order("room_type, description").Find(&items).Error; err != nil {
		return nil, translate(err, "rate product")
	}
	return items, nil
}
