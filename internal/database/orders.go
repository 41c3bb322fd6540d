package database

import (
	"context"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"
)

func (db *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.PaymentUnpaid
	}
	order.SubTotalUSD = models.Money(order.SubTotalUSD)
	order.CreatedDate = order.CreatedDate.UTC()
	for i := range order.Lines {
		order.Lines[i].UnitPriceUSD = models.Money(order.Lines[i].UnitPriceUSD)
		order.Lines[i].SubTotalUSD = models.Money(order.Lines[i].SubTotalUSD)
	}
	return translate(db.conn(ctx).Create(order).Error, "order")
}

func (db *DB) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := db.conn(ctx).Preload("Lines").First(&order, id).Error; err != nil {
		return nil, translate(err, "order")
	}
	return &order, nil
}

// ListOrders filters on the created day; zero bounds are open.
func (db *DB) ListOrders(ctx context.Context, f domain.OrderFilter) ([]*models.Order, error) {
	q := db.conn(ctx).Preload("Lines")
	if !f.From.IsZero() {
		q = q.Where("created_date >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("created_date < ?", f.To.UTC())
	}
	if f.InvoiceID != nil {
		q = q.Where("invoice_id = ?", *f.InvoiceID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []*models.Order
	if err := q.Order("created_date, id").Find(&out).Error; err != nil {
		return nil, translate(err, "order")
	}
	return out, nil
}

func (db *DB) UpdateOrderStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	res := db.conn(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	return notFoundIfNone(res, "order", id)
}
