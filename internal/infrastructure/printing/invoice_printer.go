package printing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	billingapp "github.com/erp/accounting/internal/application/billing"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// InvoicePrinter renders invoice documents through an HTML template and a PDF renderer
type InvoicePrinter struct {
	renderer  PDFRenderer
	template  *template.Template
	paperSize PaperSize
	timeout   time.Duration
	logger    *zap.Logger
}

// NewInvoicePrinter parses the invoice template and wraps the given renderer
func NewInvoicePrinter(renderer PDFRenderer, timeout time.Duration, logger *zap.Logger) (*InvoicePrinter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl, err := template.New("invoice.html.tmpl").Funcs(templateFuncs()).ParseFS(templateFS, "templates/invoice.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return &InvoicePrinter{
		renderer:  renderer,
		template:  tmpl,
		paperSize: PaperSizeA4,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// NewChromeInvoicePrinter starts a headless Chrome allocator from config
func NewChromeInvoicePrinter(cfg config.PrintingConfig, logger *zap.Logger) (*InvoicePrinter, error) {
	renderer, err := NewChromedpRenderer(&ChromedpConfig{
		DefaultTimeout: cfg.Timeout,
		ExecPath:       cfg.ChromePath,
		NoSandbox:      true,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return NewInvoicePrinter(renderer, cfg.Timeout, logger)
}

// HTML renders the invoice template without printing it
func (p *InvoicePrinter) HTML(doc *billingapp.InvoiceDocument) (string, error) {
	var buf bytes.Buffer
	if err := p.template.Execute(&buf, doc); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "invoice template failed", err)
	}
	return buf.String(), nil
}

// PrintInvoice renders the invoice to PDF bytes
func (p *InvoicePrinter) PrintInvoice(ctx context.Context, doc *billingapp.InvoiceDocument) ([]byte, error) {
	html, err := p.HTML(doc)
	if err != nil {
		return nil, err
	}
	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:        html,
		PaperSize:   p.paperSize,
		Orientation: OrientationPortrait,
		Margins:     DefaultMargins(),
		Title:       "Invoice " + doc.Invoice.Number,
		FooterHTML:  `<div style="font-size:8px;width:100%;text-align:center"><span class="pageNumber"></span> / <span class="totalPages"></span></div>`,
		Timeout:     p.timeout,
	})
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Invoice printed",
		zap.String("invoice", doc.Invoice.Number),
		zap.Int("pages", result.PageCount))
	return result.PDFData, nil
}

// Close releases the underlying renderer
func (p *InvoicePrinter) Close() error {
	return p.renderer.Close()
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": formatMoney,
		"date":  formatDate,
		"title": titleCase,
	}
}

// formatMoney prints an amount with thousand separators after its ISO currency code
// Example: 1234.5, "usd" -> "USD 1,234.50"
func formatMoney(d decimal.Decimal, code string) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	parts := strings.Split(d.StringFixed(2), ".")
	intPart := parts[0]

	var grouped strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteRune(',')
		}
		grouped.WriteRune(c)
	}
	return currencyLabel(code) + " " + sign + grouped.String() + "." + parts[1]
}

func currencyLabel(code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	return unit.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// titleCase turns enum values like bank_transfer into "Bank Transfer"
func titleCase(v any) string {
	s := strings.ReplaceAll(fmt.Sprint(v), "_", " ")
	return cases.Title(language.English).String(s)
}

var _ billingapp.InvoicePrinter = (*InvoicePrinter)(nil)
