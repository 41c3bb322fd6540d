package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxNumberSkips bounds the search for an unused number.
const maxNumberSkips = 10000

// AllocateInvoiceNumber draws the next number of sequence, never below floor,
// and formats it zero-padded to width. The counter row is updated inside the
// caller's transaction, so concurrent allocators serialize on it.
func (db *DB) AllocateInvoiceNumber(ctx context.Context, sequence string, floor int64, width int) (string, error) {
	var number string
	err := db.tx(ctx, func(tx *DB) error {
		g := tx.conn(ctx)

		if err := tx.ensureSequence(ctx, sequence, floor); err != nil {
			return err
		}

		for i := 0; i < maxNumberSkips; i++ {
			res := g.Model(&models.InvoiceSequence{}).Where("name = ?", sequence).
				UpdateColumn("last_value", gorm.Expr("last_value + ?", 1))
			if res.Error != nil {
				return fmt.Errorf("failed to advance invoice sequence: %w", res.Error)
			}

			var seq models.InvoiceSequence
			if err := g.Where("name = ?", sequence).First(&seq).Error; err != nil {
				return fmt.Errorf("failed to read invoice sequence: %w", err)
			}

			value := seq.LastValue
			if value < floor {
				value = floor
				if err := g.Model(&models.InvoiceSequence{}).Where("name = ?", sequence).
					UpdateColumn("last_value", value).Error; err != nil {
					return fmt.Errorf("failed to raise invoice sequence: %w", err)
				}
			}

			candidate := formatInvoiceNumber(value, width)
			var used int64
			if err := g.Model(&models.Invoice{}).Where("invoice_number = ?", candidate).Count(&used).Error; err != nil {
				return fmt.Errorf("failed to check invoice number: %w", err)
			}
			if used == 0 {
				number = candidate
				return nil
			}
			tx.logger.Warn().Str("sequence", sequence).Str("number", candidate).Msg("invoice number already taken, skipping")
		}
		return domain.Internal(nil, "invoice sequence %s exhausted", sequence)
	})
	return number, err
}

// ensureSequence creates the counter row, seeding it from the highest number
// already issued in that sequence.
func (db *DB) ensureSequence(ctx context.Context, sequence string, floor int64) error {
	g := db.conn(ctx)

	var count int64
	if err := g.Model(&models.InvoiceSequence{}).Where("name = ?", sequence).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to read invoice sequence: %w", err)
	}
	if count > 0 {
		return nil
	}

	start := floor - 1
	if highest, ok, err := db.highestIssued(ctx, sequence); err != nil {
		return err
	} else if ok && highest > start {
		start = highest
	}

	err := g.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.InvoiceSequence{Name: sequence, LastValue: start}).Error
	if err != nil {
		return fmt.Errorf("failed to create invoice sequence: %w", err)
	}
	return nil
}

func (db *DB) highestIssued(ctx context.Context, sequence string) (int64, bool, error) {
	q := db.conn(ctx).Model(&models.Invoice{})
	if sequence == models.SequenceCancelled {
		q = q.Where("status = ?", models.PaymentCancelled)
	} else {
		q = q.Where("status <> ?", models.PaymentCancelled)
	}

	var latest sql.NullString
	if err := q.Select("MAX(invoice_number)").Row().Scan(&latest); err != nil {
		return 0, false, fmt.Errorf("failed to read latest invoice number: %w", err)
	}
	if !latest.Valid || latest.String == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(latest.String, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invoice number %q is not numeric: %w", latest.String, err)
	}
	return n, true, nil
}

func formatInvoiceNumber(value int64, width int) string {
	return fmt.Sprintf("%0*d", width, value)
}
