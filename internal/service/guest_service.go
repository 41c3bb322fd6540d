package service

import (
	"context"
	"strings"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
)

type GuestService struct {
	store  domain.Store
	logger *zerolog.Logger
}

var _ domain.GuestService = (*GuestService)(nil)

func NewGuestService(store domain.Store, logger *zerolog.Logger) *GuestService {
	return &GuestService{store: store, logger: nopLogger(logger)}
}

func (s *GuestService) Create(ctx context.Context, in domain.GuestInput) (*models.Guest, error) {
	if err := validateGuestInput(&in); err != nil {
		return nil, err
	}
	guest := newGuest(&in)
	if err := s.store.CreateGuest(ctx, guest); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("guest_id", guest.ID).Msg("guest created")
	return guest, nil
}

func (s *GuestService) GetByID(ctx context.Context, id int64) (*models.Guest, error) {
	return s.store.GetGuest(ctx, id)
}

func (s *GuestService) List(ctx context.Context) ([]*models.Guest, error) {
	return s.store.ListGuests(ctx)
}

// Update overwrites contact data. Personal details are replaced only when
// supplied.
func (s *GuestService) Update(ctx context.Context, id int64, in domain.GuestInput) (*models.Guest, error) {
	if err := validateGuestInput(&in); err != nil {
		return nil, err
	}

	var guest *models.Guest
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		g, err := tx.GetGuest(ctx, id)
		if err != nil {
			return err
		}
		g.FirstName = strings.TrimSpace(in.FirstName)
		g.LastName = strings.TrimSpace(in.LastName)
		g.Email = models.NormalizeEmail(in.Email)
		g.Phone = strings.TrimSpace(in.Phone)
		if in.Type != "" {
			g.Type = in.Type
		}
		if in.Details != nil {
			g.PersonalDetails = models.NewPersonalDetails(*in.Details)
		}
		if err := tx.UpdateGuest(ctx, g); err != nil {
			return err
		}
		guest = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return guest, nil
}
