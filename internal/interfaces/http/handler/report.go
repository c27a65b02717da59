package handler

import (
	"net/http"
	"strings"

	"github.com/erp/accounting/internal/application/report"
	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportHandler serves financial statements and their spreadsheet exports
type ReportHandler struct {
	BaseHandler
	reportService   *report.ReportService
	snapshotService *report.SnapshotService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *report.ReportService, snapshotService *report.SnapshotService) *ReportHandler {
	return &ReportHandler{reportService: reportService, snapshotService: snapshotService}
}

// BalanceSheet handles GET /companies/:company_id/reports/balance-sheet?as_of=
func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	asOf, ok := h.queryDate(c, "as_of")
	if !ok {
		return
	}
	bs, err := h.reportService.BalanceSheet(c.Request.Context(), tenantID, companyID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bs)
}

// BalanceSheetXLSX handles GET /companies/:company_id/reports/balance-sheet.xlsx
func (h *ReportHandler) BalanceSheetXLSX(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	asOf, ok := h.queryDate(c, "as_of")
	if !ok {
		return
	}
	sheet, err := h.reportService.ExportBalanceSheetXLSX(c.Request.Context(), tenantID, companyID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, sheet)
}

// IncomeStatement handles GET /companies/:company_id/reports/income-statement?from=&to=
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	from, ok := h.queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := h.queryDate(c, "to")
	if !ok {
		return
	}
	is, err := h.reportService.IncomeStatement(c.Request.Context(), tenantID, companyID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, is)
}

// TrialBalance handles GET /companies/:company_id/reports/trial-balance?as_of=
func (h *ReportHandler) TrialBalance(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	asOf, ok := h.queryDate(c, "as_of")
	if !ok {
		return
	}
	tb, err := h.reportService.TrialBalance(c.Request.Context(), tenantID, companyID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tb)
}

// TrialBalanceXLSX handles GET /companies/:company_id/reports/trial-balance.xlsx
func (h *ReportHandler) TrialBalanceXLSX(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	asOf, ok := h.queryDate(c, "as_of")
	if !ok {
		return
	}
	sheet, err := h.reportService.ExportTrialBalanceXLSX(c.Request.Context(), tenantID, companyID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, sheet)
}

// ConsolidatedBalanceSheet handles GET /reports/consolidated-balance-sheet?company_ids=a,b&as_of=
func (h *ReportHandler) ConsolidatedBalanceSheet(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	asOf, ok := h.queryDate(c, "as_of")
	if !ok {
		return
	}
	var ids []uuid.UUID
	if raw := c.Query("company_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				h.ErrorWithCode(c, dto.ErrCodeInvalidID, "company_ids must be a comma separated list of UUIDs")
				return
			}
			ids = append(ids, id)
		}
	}
	bs, err := h.reportService.ConsolidatedBalanceSheet(c.Request.Context(), tenantID, ids, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bs)
}

// Snapshot handles POST /reports/snapshot: the nightly balance check, run on demand for the tenant
func (h *ReportHandler) Snapshot(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	snapshot, err := h.snapshotService.Run(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snapshot)
}

func (h *ReportHandler) attachment(c *gin.Context, sheet *report.Spreadsheet) {
	c.Header("Content-Disposition", `attachment; filename="`+sheet.Filename+`"`)
	c.Data(http.StatusOK, report.XLSXContentType, sheet.Data)
}
