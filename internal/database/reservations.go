package database

import (
	"context"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func preloadReservation(q *gorm.DB) *gorm.DB {
	return q.Preload("ReservationItem").Preload("Room").Preload("Guest").Preload("Invoice")
}

func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	r.CheckIn = models.Date(r.CheckIn)
	r.CheckOut = models.Date(r.CheckOut)
	r.SubTotalUSD = models.Money(r.SubTotalUSD)
	if r.Status == "" {
		r.Status = models.ReservationConfirmed
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = models.PaymentUnpaid
	}
	return translate(db.conn(ctx).Omit(clause.Associations).Create(r).Error, "reservation")
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	if err := preloadReservation(db.conn(ctx)).First(&r, id).Error; err != nil {
		return nil, translate(err, "reservation")
	}
	return &r, nil
}

func (db *DB) ListReservations(ctx context.Context, f domain.ReservationFilter) ([]*models.Reservation, error) {
	q := preloadReservation(db.conn(ctx))
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.ExcludeCancelled {
		q = q.Where("status <> ?", models.ReservationCancelled)
	}
	if f.RoomID != nil {
		q = q.Where("room_id = ?", *f.RoomID)
	}
	if f.InvoiceID != nil {
		q = q.Where("invoice_id = ?", *f.InvoiceID)
	}

	var out []*models.Reservation
	if err := q.Order("check_in, id").Find(&out).Error; err != nil {
		return nil, translate(err, "reservation")
	}
	return out, nil
}

// UpdateReservation writes the mutable columns of r. Associations are ignored.
func (db *DB) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	res := db.conn(ctx).Model(&models.Reservation{}).Where("id = ?", r.ID).Updates(map[string]interface{}{
		"check_in":            models.Date(r.CheckIn),
		"check_out":           models.Date(r.CheckOut),
		"nights":              r.Nights,
		"status":              r.Status,
		"payment_status":      r.PaymentStatus,
		"sub_total_usd":       models.Money(r.SubTotalUSD),
		"notes":               r.Notes,
		"reservation_item_id": r.ReservationItemID,
		"room_id":             r.RoomID,
		"guest_id":            r.GuestID,
		"invoice_id":          r.InvoiceID,
	})
	return notFoundIfNone(res, "reservation", r.ID)
}
