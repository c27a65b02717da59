package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the media type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// numFmtAccounting is excelize's built-in "#,##0.00" format
const numFmtAccounting = 4

// Spreadsheet is an exported workbook ready to be sent as a download
type Spreadsheet struct {
	Filename string
	Data     []byte
}

// ExportBalanceSheetXLSX renders a company balance sheet as a workbook
func (s *ReportService) ExportBalanceSheetXLSX(ctx context.Context, tenantID, companyID uuid.UUID, asOf time.Time) (*Spreadsheet, error) {
	co, err := s.repos.Companies().FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	bs, err := s.BalanceSheet(ctx, tenantID, companyID, asOf)
	if err != nil {
		return nil, err
	}

	w, err := newSheetWriter("Balance Sheet")
	if err != nil {
		return nil, err
	}
	defer w.close()

	w.title(fmt.Sprintf("Balance Sheet - %s (%s)", co.Name, co.Code))
	w.note("As of " + bs.AsOf.Format("2006-01-02") + ", amounts in " + co.Currency)
	w.blank()
	w.header("Code", "Account", "Amount")
	for _, section := range []struct {
		label string
		s     report.Section
	}{
		{"Assets", bs.Assets},
		{"Liabilities", bs.Liabilities},
		{"Equity", bs.Equity},
	} {
		w.heading(section.label)
		for _, line := range section.s.Lines {
			w.amountRow(line.IsHeader, line.Code, strings.Repeat("    ", line.Depth)+line.Name, line.Amount)
		}
		w.amountRow(true, "", "Total "+strings.ToLower(section.label), section.s.Total)
		w.blank()
	}
	w.amountRow(false, "", "Current earnings", bs.CurrentEarnings)
	w.amountRow(true, "", "Total equity", bs.TotalEquity)
	w.amountRow(true, "", "Total liabilities and equity", bs.TotalLiabilitiesAndEquity)
	w.note("Balanced: " + yesNo(bs.Balanced))
	w.widths(map[string]float64{"A": 10, "B": 44, "C": 18})

	data, err := w.bytes()
	if err != nil {
		return nil, err
	}
	return &Spreadsheet{
		Filename: fmt.Sprintf("balance-sheet-%s-%s.xlsx", strings.ToLower(co.Code), bs.AsOf.Format("20060102")),
		Data:     data,
	}, nil
}

// ExportTrialBalanceXLSX renders a company trial balance as a workbook
func (s *ReportService) ExportTrialBalanceXLSX(ctx context.Context, tenantID, companyID uuid.UUID, asOf time.Time) (*Spreadsheet, error) {
	co, err := s.repos.Companies().FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	tb, err := s.TrialBalance(ctx, tenantID, companyID, asOf)
	if err != nil {
		return nil, err
	}
	date := s.reportDate(asOf)

	w, err := newSheetWriter("Trial Balance")
	if err != nil {
		return nil, err
	}
	defer w.close()

	w.title(fmt.Sprintf("Trial Balance - %s (%s)", co.Name, co.Code))
	w.note("As of " + date.Format("2006-01-02") + ", amounts in " + co.Currency)
	w.blank()
	w.header("Code", "Account", "Type", "Debit", "Credit")
	for _, line := range tb.Lines {
		w.row(false, line.Code, line.Name, string(line.Type), money(line.Debit), money(line.Credit))
	}
	w.row(true, "", "Total", "", money(tb.TotalDebit), money(tb.TotalCredit))
	w.note("Balanced: " + yesNo(tb.IsBalanced()))
	w.widths(map[string]float64{"A": 10, "B": 40, "C": 12, "D": 18, "E": 18})

	data, err := w.bytes()
	if err != nil {
		return nil, err
	}
	return &Spreadsheet{
		Filename: fmt.Sprintf("trial-balance-%s-%s.xlsx", strings.ToLower(co.Code), date.Format("20060102")),
		Data:     data,
	}, nil
}

// money marks a cell value for the accounting number format
type money decimal.Decimal

// sheetWriter appends rows to a single-sheet workbook.
// The first error sticks and is returned by bytes.
type sheetWriter struct {
	f         *excelize.File
	sheet     string
	next      int
	bold      int
	number    int
	boldTotal int
	err       error
}

func newSheetWriter(sheet string) (*sheetWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	w := &sheetWriter{f: f, sheet: sheet, next: 1}

	styles := []struct {
		target *int
		style  *excelize.Style
	}{
		{&w.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&w.number, &excelize.Style{NumFmt: numFmtAccounting}},
		{&w.boldTotal, &excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: numFmtAccounting}},
	}
	for _, st := range styles {
		id, err := f.NewStyle(st.style)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		*st.target = id
	}
	return w, nil
}

func (w *sheetWriter) title(text string) {
	w.set(1, text, w.bold)
	w.next++
}

func (w *sheetWriter) note(text string) {
	w.set(1, text, 0)
	w.next++
}

func (w *sheetWriter) heading(text string) {
	w.set(1, text, w.bold)
	w.next++
}

func (w *sheetWriter) blank() {
	w.next++
}

func (w *sheetWriter) header(cols ...string) {
	for i, c := range cols {
		w.set(i+1, c, w.bold)
	}
	w.next++
}

func (w *sheetWriter) amountRow(bold bool, code, name string, amount decimal.Decimal) {
	w.row(bold, code, name, money(amount))
}

func (w *sheetWriter) row(bold bool, values ...any) {
	for i, v := range values {
		style := 0
		if bold {
			style = w.bold
		}
		if m, ok := v.(money); ok {
			v = decimal.Decimal(m).InexactFloat64()
			style = w.number
			if bold {
				style = w.boldTotal
			}
		}
		w.set(i+1, v, style)
	}
	w.next++
}

func (w *sheetWriter) set(col int, value any, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, w.next)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		w.err = err
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, cell, cell, style)
	}
}

func (w *sheetWriter) widths(cols map[string]float64) {
	for col, width := range cols {
		if w.err != nil {
			return
		}
		w.err = w.f.SetColWidth(w.sheet, col, col, width)
	}
}

func (w *sheetWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *sheetWriter) close() {
	_ = w.f.Close()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
