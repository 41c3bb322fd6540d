package database

import (
	"context"
	"fmt"
	"time"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (db *DB) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv.Status == "" {
		inv.Status = models.PaymentUnpaid
	}
	inv.TotalUSD = models.Money(inv.TotalUSD)
	inv.RemainingBalanceUSD = models.Money(inv.RemainingBalanceUSD)
	return translate(db.conn(ctx).Omit(clause.Associations).Create(inv).Error, "invoice")
}

func (db *DB) GetInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	var inv models.Invoice
	err := db.conn(ctx).
		Preload("Guest").
		Preload("Reservations", func(q *gorm.DB) *gorm.DB { return q.Order("check_in, id") }).
		Preload("Reservations.ReservationItem").
		Preload("Reservations.Room").
		Preload("Orders", func(q *gorm.DB) *gorm.DB { return q.Order("created_date, id") }).
		Preload("Orders.Lines").
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id") }).
		First(&inv, id).Error
	if err != nil {
		return nil, translate(err, "invoice")
	}
	return &inv, nil
}

func (db *DB) ListInvoices(ctx context.Context, f domain.InvoiceFilter) ([]*models.Invoice, error) {
	q := db.conn(ctx).Preload("Guest")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AfterID > 0 {
		q = q.Where("id > ?", f.AfterID)
	}
	if f.OldestFirst {
		q = q.Order("id ASC")
	} else {
		q = q.Order("created_at DESC, id DESC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []*models.Invoice
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err, "invoice")
	}
	return out, nil
}

// UpdateInvoiceStatus sets the status and, when number is non-empty, the
// invoice number.
func (db *DB) UpdateInvoiceStatus(ctx context.Context, id int64, status models.PaymentStatus, number string) error {
	values := map[string]interface{}{"status": status}
	if number != "" {
		values["invoice_number"] = number
	}
	res := db.conn(ctx).Model(&models.Invoice{}).Where("id = ?", id).Updates(values)
	return notFoundIfNone(res, "invoice", id)
}

// SaveInvoiceTotals persists reconciled totals and replaces the invoice lines.
func (db *DB) SaveInvoiceTotals(ctx context.Context, id int64, totals domain.InvoiceTotals) error {
	return db.tx(ctx, func(tx *DB) error {
		at := totals.ReconciledAt
		if at.IsZero() {
			at = time.Now().UTC()
		}
		res := tx.conn(ctx).Model(&models.Invoice{}).Where("id = ?", id).Updates(map[string]interface{}{
			"total_usd":             models.Money(totals.TotalUSD),
			"remaining_balance_usd": models.Money(totals.RemainingBalanceUSD),
			"reconciled_at":         at,
		})
		if err := notFoundIfNone(res, "invoice", id); err != nil {
			return err
		}

		if err := tx.conn(ctx).Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear invoice items: %w", err)
		}
		if len(totals.Items) == 0 {
			return nil
		}
		items := make([]models.InvoiceItem, len(totals.Items))
		for i, it := range totals.Items {
			it.ID = 0
			it.InvoiceID = id
			it.AmountUSD = models.Money(it.AmountUSD)
			items[i] = it
		}
		if err := tx.conn(ctx).Create(&items).Error; err != nil {
			return fmt.Errorf("failed to write invoice items: %w", err)
		}
		return nil
	})
}

func (db *DB) SumReservationSubTotals(ctx context.Context, f domain.SubTotalFilter) (decimal.NullDecimal, error) {
	return db.sumSubTotals(ctx, &models.Reservation{}, "payment_status", f)
}

func (db *DB) SumOrderSubTotals(ctx context.Context, f domain.SubTotalFilter) (decimal.NullDecimal, error) {
	return db.sumSubTotals(ctx, &models.Order{}, "status", f)
}

// sumSubTotals returns an invalid NullDecimal when no row matches.
func (db *DB) sumSubTotals(ctx context.Context, model interface{}, statusColumn string, f domain.SubTotalFilter) (decimal.NullDecimal, error) {
	q := db.conn(ctx).Model(model).Where("invoice_id = ?", f.InvoiceID)
	if f.Exclude {
		q = q.Where(statusColumn+" <> ?", f.Status)
	} else {
		q = q.Where(statusColumn+" = ?", f.Status)
	}

	var sum decimal.NullDecimal
	if err := q.Select("SUM(sub_total_usd)").Row().Scan(&sum); err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("failed to aggregate sub-totals: %w", err)
	}
	if sum.Valid {
		sum.Decimal = models.Money(sum.Decimal)
	}
	return sum, nil
}
