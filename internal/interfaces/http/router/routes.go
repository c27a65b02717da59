package router

import (
	"net/http"

	"github.com/erp/accounting/internal/domain/identity"
	"github.com/erp/accounting/internal/interfaces/http/handler"
	"github.com/erp/accounting/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups every API handler
type Handlers struct {
	Auth          *handler.AuthHandler
	Tenant        *handler.TenantHandler
	Company       *handler.CompanyHandler
	Ledger        *handler.LedgerHandler
	Product       *handler.ProductHandler
	SalesOrder    *handler.OrderHandler
	PurchaseOrder *handler.OrderHandler
	Invoice       *handler.DocumentHandler
	Bill          *handler.DocumentHandler
	Intercompany  *handler.IntercompanyHandler
	Report        *handler.ReportHandler
	Health        *handler.HealthHandler
}

// RegisterSystemRoutes mounts /health and, when given, the Prometheus scrape endpoint at /metrics
func RegisterSystemRoutes(engine *gin.Engine, health *handler.HealthHandler, metrics http.Handler) {
	engine.GET("/health", health.Health)
	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics))
	}
}

// API registers the versioned API. Token endpoints are public; everything else needs a
// bearer token and a resolved tenant. Viewers may only read, apart from logging out.
func API(h Handlers, verifier middleware.TokenVerifier) RouteRegistrar {
	return RegistrarFunc(func(api *gin.RouterGroup) {
		auth := api.Group("/auth")
		auth.POST("/token", h.Auth.Token)
		auth.POST("/refresh", h.Auth.Refresh)

		session := api.Group("")
		session.Use(middleware.Authenticate(verifier), middleware.Tenant())
		session.POST("/auth/logout", h.Auth.Logout)
		session.GET("/auth/me", h.Auth.Me)

		secured := session.Group("")
		secured.Use(middleware.ReadOnlyFor(string(identity.UserRoleViewer)))

		admin := secured.Group("")
		admin.Use(middleware.RequireRole(string(identity.UserRoleAdmin)))
		registerAdmin(admin, h)

		secured.GET("/account-types", h.Ledger.ListAccountTypes)
		registerIntercompany(secured.Group("/intercompany"), h.Intercompany)
		secured.GET("/reports/consolidated-balance-sheet", h.Report.ConsolidatedBalanceSheet)
		secured.POST("/reports/snapshot", h.Report.Snapshot)

		companies := secured.Group("/companies")
		companies.POST("", h.Company.Create)
		companies.GET("", h.Company.List)

		co := companies.Group("/:company_id")
		co.GET("", h.Company.Get)
		co.PUT("", h.Company.Update)
		co.POST("/activate", h.Company.Activate)
		co.POST("/deactivate", h.Company.Deactivate)

		registerLedger(co, h.Ledger)
		registerProducts(co.Group("/products"), h.Product)
		registerOrders(co.Group("/sales-orders"), h.SalesOrder)
		registerOrders(co.Group("/purchase-orders"), h.PurchaseOrder)
		registerInvoices(co.Group("/invoices"), h.Invoice)
		registerBills(co.Group("/bills"), h.Bill)
		registerReports(co.Group("/reports"), h.Report)
	})
}

func registerAdmin(rg *gin.RouterGroup, h Handlers) {
	tenants := rg.Group("/tenants")
	tenants.POST("", h.Tenant.Create)
	tenants.GET("", h.Tenant.List)
	tenants.GET("/:id", h.Tenant.Get)
	tenants.PUT("/:id", h.Tenant.Update)
	tenants.POST("/:id/activate", h.Tenant.Activate)
	tenants.POST("/:id/deactivate", h.Tenant.Deactivate)

	rg.POST("/users", h.Auth.CreateUser)
	rg.GET("/users/:id", h.Auth.GetUser)
}

func registerLedger(co *gin.RouterGroup, h *handler.LedgerHandler) {
	accounts := co.Group("/accounts")
	accounts.POST("", h.CreateAccount)
	accounts.GET("", h.ListAccounts)
	accounts.GET("/tree", h.AccountTree)
	accounts.GET("/trial-balance", h.TrialBalance)
	accounts.GET("/:id", h.GetAccount)
	accounts.PUT("/:id", h.UpdateAccount)
	accounts.DELETE("/:id", h.DeleteAccount)

	journal := co.Group("/journal-entries")
	journal.POST("", h.PostJournalEntry)
	journal.GET("", h.ListJournalEntries)
	journal.GET("/:id", h.GetJournalEntry)
}

func registerProducts(rg *gin.RouterGroup, h *handler.ProductHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/activate", h.Activate)
	rg.POST("/:id/deactivate", h.Deactivate)
}

func registerOrders(rg *gin.RouterGroup, h *handler.OrderHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/summary", h.Summary)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/items", h.AddItem)
	rg.DELETE("/:id/items/:item_id", h.RemoveItem)
	rg.POST("/:id/confirm", h.Confirm)
	rg.POST("/:id/cancel", h.Cancel)
}

func registerDocuments(rg *gin.RouterGroup, h *handler.DocumentHandler) {
	rg.POST("/from-order", h.CreateFromOrder)
	rg.GET("", h.List)
	rg.GET("/summary", h.Summary)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/issue", h.Issue)
}

func registerInvoices(rg *gin.RouterGroup, h *handler.DocumentHandler) {
	registerDocuments(rg, h)
	rg.POST("/:id/receipts", h.RecordPayment)
	rg.GET("/:id/receipts", h.ListPayments)
	rg.GET("/:id/document", h.Document)
	rg.POST("/:id/document", h.RenderDocument)
}

func registerBills(rg *gin.RouterGroup, h *handler.DocumentHandler) {
	registerDocuments(rg, h)
	rg.POST("/:id/payments", h.RecordPayment)
	rg.GET("/:id/payments", h.ListPayments)
}

func registerIntercompany(rg *gin.RouterGroup, h *handler.IntercompanyHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/reconcile", h.Reconcile)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/invoice", h.Invoice)
	rg.POST("/:id/settle", h.Settle)
	rg.POST("/:id/cancel", h.Cancel)
}

func registerReports(rg *gin.RouterGroup, h *handler.ReportHandler) {
	rg.GET("/balance-sheet", h.BalanceSheet)
	rg.GET("/balance-sheet.xlsx", h.BalanceSheetXLSX)
	rg.GET("/income-statement", h.IncomeStatement)
	rg.GET("/trial-balance", h.TrialBalance)
	rg.GET("/trial-balance.xlsx", h.TrialBalanceXLSX)
}
