package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ordersSheet    = "Orders"
	dailySheet     = "Daily"
	statementSheet = "Statement"

	moneyFormat = "#,##0.00"
)

type OrderLister interface {
	List(ctx context.Context, f domain.OrderFilter) ([]*models.Order, error)
}

type InvoiceReader interface {
	GetByID(ctx context.Context, id int64) (*models.Invoice, error)
}

// Exporter builds XLSX workbooks for the back office.
type Exporter struct {
	orders   OrderLister
	invoices InvoiceReader
	loc      *time.Location
	dir      string
	logger   zerolog.Logger
}

func NewExporter(orders OrderLister, invoices InvoiceReader, loc *time.Location, dir string, logger *zerolog.Logger) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "report").Logger()
	}
	return &Exporter{orders: orders, invoices: invoices, loc: loc, dir: dir, logger: l}
}

// Orders lists the orders created on days [from, to) with one row per order
// and a per-day summary sheet. A zero to means a single day.
func (e *Exporter) Orders(ctx context.Context, from, to time.Time) (*excelize.File, error) {
	from = models.StartOfDay(from, e.loc)
	if to.IsZero() {
		to = from.AddDate(0, 0, 1)
	}
	orders, err := e.orders.List(ctx, domain.OrderFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(ordersSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	_ = f.SetCellValue(ordersSheet, "A1", fmt.Sprintf("Orders %s to %s",
		from.Format("2006-01-02"), to.AddDate(0, 0, -1).Format("2006-01-02")))
	_ = f.MergeCell(ordersSheet, "A1", "H1")
	_ = f.SetCellStyle(ordersSheet, "A1", "A1", styles.title)

	headers := []string{"Date", "Order", "Items", "Happy hour", "Discount %", "Sub-total USD", "Status", "Invoice"}
	writeHeader(f, ordersSheet, 2, headers, styles.header)

	type day struct {
		count int
		total decimal.Decimal
	}
	days := make(map[string]*day)

	row := 3
	for _, o := range orders {
		date := o.CreatedDate.In(e.loc).Format("2006-01-02")
		invoice := ""
		if o.InvoiceID != nil {
			invoice = fmt.Sprintf("%d", *o.InvoiceID)
		}
		values := []interface{}{
			date,
			o.ID,
			describeLines(o.Lines),
			yesNo(o.HappyHour),
			o.DiscountPercent.InexactFloat64(),
			o.SubTotalUSD.InexactFloat64(),
			string(o.Status),
			invoice,
		}
		writeRow(f, ordersSheet, row, values)
		_ = f.SetCellStyle(ordersSheet, cell(6, row), cell(6, row), styles.money)

		d, ok := days[date]
		if !ok {
			d = &day{}
			days[date] = d
		}
		d.count++
		if o.Status != models.PaymentCancelled {
			d.total = d.total.Add(o.SubTotalUSD)
		}
		row++
	}

	_ = f.SetColWidth(ordersSheet, "A", "B", 12)
	_ = f.SetColWidth(ordersSheet, "C", "C", 40)
	_ = f.SetColWidth(ordersSheet, "D", "H", 14)

	if _, err := f.NewSheet(dailySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	writeHeader(f, dailySheet, 1, []string{"Date", "Orders", "Sales USD"}, styles.header)

	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for i, date := range dates {
		r := i + 2
		writeRow(f, dailySheet, r, []interface{}{date, days[date].count, days[date].total.InexactFloat64()})
		_ = f.SetCellStyle(dailySheet, cell(3, r), cell(3, r), styles.money)
	}
	_ = f.SetColWidth(dailySheet, "A", "C", 14)

	return f, nil
}

// Statement renders an invoice with its reconciled lines and totals.
func (e *Exporter) Statement(ctx context.Context, invoiceID int64) (*excelize.File, error) {
	inv, err := e.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error renaming sheet: %w", err)
	}
	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	_ = f.SetCellValue(statementSheet, "A1", "Invoice "+inv.InvoiceNumber)
	_ = f.MergeCell(statementSheet, "A1", "D1")
	_ = f.SetCellStyle(statementSheet, "A1", "A1", styles.title)

	guest := ""
	if inv.Guest != nil {
		guest = strings.TrimSpace(inv.Guest.FirstName + " " + inv.Guest.LastName)
	}
	_ = f.SetCellValue(statementSheet, "A2", "Guest")
	_ = f.SetCellValue(statementSheet, "B2", guest)
	_ = f.SetCellValue(statementSheet, "A3", "Status")
	_ = f.SetCellValue(statementSheet, "B3", string(inv.Status))

	writeHeader(f, statementSheet, 5, []string{"Kind", "Description", "Status", "Amount USD"}, styles.header)
	row := 6
	for _, item := range inv.Items {
		writeRow(f, statementSheet, row, []interface{}{
			string(item.Kind), item.Description, string(item.Status), item.AmountUSD.InexactFloat64(),
		})
		_ = f.SetCellStyle(statementSheet, cell(4, row), cell(4, row), styles.money)
		row++
	}

	row++
	_ = f.SetCellValue(statementSheet, cell(3, row), "Total")
	_ = f.SetCellValue(statementSheet, cell(4, row), inv.TotalUSD.InexactFloat64())
	_ = f.SetCellStyle(statementSheet, cell(3, row), cell(4, row), styles.total)
	row++
	_ = f.SetCellValue(statementSheet, cell(3, row), "Remaining")
	_ = f.SetCellValue(statementSheet, cell(4, row), inv.RemainingBalanceUSD.InexactFloat64())
	_ = f.SetCellStyle(statementSheet, cell(3, row), cell(4, row), styles.total)

	_ = f.SetColWidth(statementSheet, "A", "A", 14)
	_ = f.SetColWidth(statementSheet, "B", "B", 60)
	_ = f.SetColWidth(statementSheet, "C", "D", 14)

	return f, nil
}

func (e *Exporter) SaveOrders(ctx context.Context, from, to time.Time) (string, error) {
	f, err := e.Orders(ctx, from, to)
	if err != nil {
		return "", err
	}
	defer f.Close()

	from = models.StartOfDay(from, e.loc)
	name := fmt.Sprintf("orders_%s.xlsx", from.Format("2006-01-02"))
	if !to.IsZero() {
		name = fmt.Sprintf("orders_%s_to_%s.xlsx", from.Format("2006-01-02"), to.In(e.loc).Format("2006-01-02"))
	}
	return e.save(f, name)
}

func (e *Exporter) SaveStatement(ctx context.Context, invoiceID int64) (string, error) {
	f, err := e.Statement(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return e.save(f, fmt.Sprintf("invoice_%d.xlsx", invoiceID))
}

func (e *Exporter) save(f *excelize.File, name string) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}
	path := filepath.Join(e.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	e.logger.Info().Str("file_path", path).Msg("report written")
	return path, nil
}

type styles struct {
	title  int
	header int
	money  int
	total  int
}

func newStyles(f *excelize.File) (*styles, error) {
	var s styles
	var err error
	moneyFmt := moneyFormat
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return nil, fmt.Errorf("error creating style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	}); err != nil {
		return nil, fmt.Errorf("error creating style: %w", err)
	}
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return nil, fmt.Errorf("error creating style: %w", err)
	}
	if s.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &moneyFmt,
	}); err != nil {
		return nil, fmt.Errorf("error creating style: %w", err)
	}
	return &s, nil
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) {
	for i, h := range headers {
		_ = f.SetCellValue(sheet, cell(i+1, row), h)
	}
	_ = f.SetCellStyle(sheet, cell(1, row), cell(len(headers), row), style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		_ = f.SetCellValue(sheet, cell(i+1, row), v)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func describeLines(lines []models.ItemOrder) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		name := l.ItemName
		if name == "" {
			name = fmt.Sprintf("item %d", l.ItemID)
		}
		parts = append(parts, fmt.Sprintf("%d x %s", l.Quantity, name))
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
