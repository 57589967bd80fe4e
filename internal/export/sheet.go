package export

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"orderview/internal/locale"
)

// Sheet names of the workbook written by SheetSink.
const (
	DetailSheet  = "订单详情"
	SummarySheet = "统计信息"
	StatusSheet  = "状态统计"
)

var detailHeader = []any{"订单编号", "交易时间", "状态", "商品名称", "数量", "单价", "金额"}

// SheetSink writes a spreadsheet with one row per product, newest orders first,
// plus a summary sheet and per-status totals. Orders without products get no
// rows. Like FileSink, nothing is written until Close.
type SheetSink struct {
	path   string
	format *locale.Formatter
	now    func() time.Time
	rows   []sheetRow
}

type sheetRow struct {
	orderID   string
	createdAt int64
	created   string
	status    string
	product   string
	amount    int64
	unit      decimal.Decimal
	total     decimal.Decimal
}

// NewSheetSink creates the parent directory of path. Dates are rendered by f
// with locale.SheetLayout.
func NewSheetSink(path string, f *locale.Formatter) (*SheetSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "mkdir")
	}
	return &SheetSink{path: path, format: f.WithLayout(locale.SheetLayout), now: time.Now}, nil
}

func (s *SheetSink) Path() string { return s.path }

func (s *SheetSink) Append(e Entry) error {
	created, _ := s.format.Timestamp(e.OrderInfo.CreatedAt)
	secs, _ := strconv.ParseInt(e.OrderInfo.CreatedAt, 10, 64)
	for _, p := range e.Products {
		s.rows = append(s.rows, sheetRow{
			orderID:   e.OrderInfo.OrderID,
			createdAt: secs,
			created:   created,
			status:    e.OrderInfo.Status.Name,
			product:   p.ProductName,
			amount:    p.Amount,
			unit:      decimal.NewFromFloat(p.UnitPrice),
			total:     lineTotal(p),
		})
	}
	return nil
}

// lineTotal is the product's price, or unit price times amount when no price
// was captured.
func lineTotal(p Product) decimal.Decimal {
	if p.Price != 0 {
		return decimal.NewFromFloat(p.Price)
	}
	return decimal.NewFromFloat(p.UnitPrice).Mul(decimal.NewFromInt(p.Amount))
}

func (s *SheetSink) Close() error {
	sort.SliceStable(s.rows, func(i, j int) bool {
		if s.rows[i].createdAt != s.rows[j].createdAt {
			return s.rows[i].createdAt > s.rows[j].createdAt
		}
		return s.rows[i].orderID < s.rows[j].orderID
	})

	wb := excelize.NewFile()
	defer wb.Close()
	if err := wb.SetSheetName(wb.GetSheetName(0), DetailSheet); err != nil {
		return errors.Wrap(err, "name detail sheet")
	}
	for _, name := range []string{SummarySheet, StatusSheet} {
		if _, err := wb.NewSheet(name); err != nil {
			return errors.Wrapf(err, "add sheet %s", name)
		}
	}

	detail := [][]any{detailHeader}
	orders := map[string]struct{}{}
	sum := decimal.Zero
	type statusTotals struct {
		orders map[string]struct{}
		amount int64
		total  decimal.Decimal
	}
	byStatus := map[string]*statusTotals{}
	var statuses []string
	for _, r := range s.rows {
		unit, _ := r.unit.Float64()
		total, _ := r.total.Float64()
		detail = append(detail, []any{r.orderID, r.created, r.status, r.product, r.amount, unit, total})
		orders[r.orderID] = struct{}{}
		sum = sum.Add(r.total)
		st, ok := byStatus[r.status]
		if !ok {
			st = &statusTotals{orders: map[string]struct{}{}}
			byStatus[r.status] = st
			statuses = append(statuses, r.status)
		}
		st.orders[r.orderID] = struct{}{}
		st.amount += r.amount
		st.total = st.total.Add(r.total)
	}
	sort.Strings(statuses)

	total, _ := sum.Float64()
	summary := [][]any{
		{"项目", "值"},
		{"总商品记录数", len(s.rows)},
		{"总订单数", len(orders)},
		{"总金额", total},
		{"导出时间", s.now().Format(locale.SheetLayout)},
	}
	perStatus := [][]any{{"状态", "订单数", "总数量", "总金额"}}
	for _, name := range statuses {
		st := byStatus[name]
		t, _ := st.total.Float64()
		perStatus = append(perStatus, []any{name, len(st.orders), st.amount, t})
	}

	for sheet, rows := range map[string][][]any{DetailSheet: detail, SummarySheet: summary, StatusSheet: perStatus} {
		if err := writeRows(wb, sheet, rows); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create")
	}
	defer os.Remove(tmp.Name())
	if _, err := wb.WriteTo(tmp); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write workbook")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "rename")
	}
	return nil
}

func writeRows(wb *excelize.File, sheet string, rows [][]any) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := wb.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return errors.Wrapf(err, "write %s row %d", sheet, i+1)
		}
	}
	return nil
}
