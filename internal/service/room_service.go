package service

import (
	"context"
	"strings"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
)

type RoomService struct {
	store  domain.Store
	logger *zerolog.Logger
}

var _ domain.RoomService = (*RoomService)(nil)

func NewRoomService(store domain.Store, logger *zerolog.Logger) *RoomService {
	return &RoomService{store: store, logger: nopLogger(logger)}
}

func (s *RoomService) Create(ctx context.Context, room *models.Room) error {
	room.Number = strings.TrimSpace(room.Number)
	if room.Number == "" || strings.TrimSpace(room.Type) == "" {
		return domain.Invalid("room number and type are required")
	}
	if room.Status != "" && !room.Status.Valid() {
		return domain.Invalid("unknown room status %q", room.Status)
	}
	return s.store.CreateRoom(ctx, room)
}

func (s *RoomService) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	return s.store.GetRoom(ctx, id)
}

func (s *RoomService) List(ctx context.Context) ([]*models.Room, error) {
	return s.store.ListRooms(ctx)
}

// UpdateStatus is for housekeeping and maintenance. Occupancy follows check-in
// and check-out, so a room with a guest in house cannot be freed here.
func (s *RoomService) UpdateStatus(ctx context.Context, id int64, status models.RoomStatus) (*models.Room, error) {
	if !status.Valid() {
		return nil, domain.Invalid("unknown room status %q", status)
	}

	var room *models.Room
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		r, err := tx.GetRoom(ctx, id)
		if err != nil {
			return err
		}
		if r.Status == models.RoomOccupied && status != models.RoomOccupied {
			inHouse, err := tx.ListReservations(ctx, domain.ReservationFilter{
				RoomID:   &id,
				Statuses: []models.ReservationStatus{models.ReservationCheckedIn, models.ReservationFinalBill},
			})
			if err != nil {
				return err
			}
			if len(inHouse) > 0 {
				return domain.Unprocessable("room %s has a guest in house", r.Number)
			}
		}
		if err := tx.UpdateRoomStatus(ctx, id, status); err != nil {
			return err
		}
		r.Status = status
		room = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("room_id", id).Str("status", string(status)).Msg("room status changed")
	return room, nil
}
