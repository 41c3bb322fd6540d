package database

import (
	"context"

	"hotelpos/internal/models"
)

func (db *DB) CreateGuest(ctx context.Context, guest *models.Guest) error {
	guest.Email = models.NormalizeEmail(guest.Email)
	if guest.Type == "" {
		guest.Type = models.GuestHotel
	}
	return translate(db.conn(ctx).Create(guest).Error, "guest")
}

func (db *DB) GetGuest(ctx context.Context, id int64) (*models.Guest, error) {
	var guest models.Guest
	if err := db.conn(ctx).First(&guest, id).Error; err != nil {
		return nil, translate(err, "guest")
	}
	return &guest, nil
}

func (db *DB) GetGuestByEmail(ctx context.Context, email string) (*models.Guest, error) {
	var guest models.Guest
	err := db.conn(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&guest).Error
	if err != nil {
		return nil, translate(err, "guest")
	}
	return &guest, nil
}

func (db *DB) ListGuests(ctx context.Context) ([]*models.Guest, error) {
	var guests []*models.Guest
	if err := db.conn(ctx).Order("last_name, first_name, id").Find(&guests).Error; err != nil {
		return nil, translate(err, "guest")
	}
	return guests, nil
}

func (db *DB) UpdateGuest(ctx context.Context, guest *models.Guest) error {
	guest.Email = models.NormalizeEmail(guest.Email)
	res := db.conn(ctx).Model(&models.Guest{}).Where("id = ?", guest.ID).Updates(map[string]interface{}{
		"first_name":       guest.FirstName,
		"last_name":        guest.LastName,
		"email":            guest.Email,
		"phone":            guest.Phone,
		"type":             guest.Type,
		"credit_usd":       models.Money(guest.CreditUSD),
		"personal_details": guest.PersonalDetails,
	})
	return notFoundIfNone(res, "guest", guest.ID)
}

func (db *DB) SetGuestCurrentReservation(ctx context.Context, guestID int64, reservationID *int64) error {
	res := db.conn(ctx).Model(&models.Guest{}).Where("id = ?", guestID).Update("current_reservation_id", reservationID)
	return notFoundIfNone(res, "guest", guestID)
}
