// Package app wires repositories, services and HTTP handlers into one object graph
package app

import (
	"time"

	"github.com/erp/accounting/internal/application/billing"
	"github.com/erp/accounting/internal/application/catalog"
	"github.com/erp/accounting/internal/application/company"
	"github.com/erp/accounting/internal/application/identity"
	"github.com/erp/accounting/internal/application/intercompany"
	"github.com/erp/accounting/internal/application/ledger"
	"github.com/erp/accounting/internal/application/report"
	"github.com/erp/accounting/internal/application/trade"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/auth"
	"github.com/erp/accounting/internal/infrastructure/cache"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/erp/accounting/internal/infrastructure/persistence"
	"github.com/erp/accounting/internal/interfaces/http/handler"
	"github.com/erp/accounting/internal/interfaces/http/router"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the infrastructure pieces the services are built on
type Deps struct {
	DB       *gorm.DB
	Backends *cache.Backends
	// Revocations defaults to Redis when Backends carries a client, memory otherwise
	Revocations auth.RevocationList
	Publisher   shared.EventPublisher
	Seeder      *ledger.ChartSeeder

	JWT          config.JWTConfig
	Intercompany config.IntercompanyConfig
	Report       config.ReportConfig

	// Printer and Store enable invoice PDFs when both are set
	Printer   billing.InvoicePrinter
	Store     billing.DocumentStore
	URLExpiry time.Duration

	SnapshotRecorder report.SnapshotRecorder
	Logger           *zap.Logger
}

// Services holds every application service
type Services struct {
	Repos        *persistence.GormRepositories
	JWT          *auth.JWTService
	Auth         *identity.AuthService
	Users        *identity.UserService
	Tenants      *identity.TenantService
	Companies    *company.CompanyService
	Accounts     *ledger.AccountService
	Journal      *ledger.JournalService
	Products     *catalog.ProductService
	SalesOrders  *trade.SalesOrderService
	Purchases    *trade.PurchaseOrderService
	Invoices     *billing.InvoiceService
	Bills        *billing.BillService
	Documents    *billing.DocumentService
	Intercompany *intercompany.IntercompanyService
	Reports      *report.ReportService
	Snapshots    *report.SnapshotService
	// ReportCache is nil when report caching is disabled
	ReportCache report.Cache
}

// NewServices builds the services and attaches the event publisher to those that raise events
func NewServices(d Deps) *Services {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	backends := d.Backends
	if backends == nil {
		backends = cache.NewBackendFactory(config.RedisConfig{}).InMemory()
	}
	revocations := d.Revocations
	if revocations == nil {
		if backends.Client != nil {
			revocations = auth.NewRedisRevocationList(backends.Client)
		} else {
			revocations = auth.NewMemoryRevocationList()
		}
	}
	seeder := d.Seeder
	if seeder == nil {
		seeder = ledger.NewChartSeeder(nil)
	}

	repos := persistence.NewGormRepositories(d.DB)
	scope := persistence.NewGormTransactionScope(d.DB)
	poster := ledger.NewPoster()
	jwtService := auth.NewJWTService(d.JWT)

	s := &Services{Repos: repos, JWT: jwtService}
	if d.Report.CacheEnabled {
		s.ReportCache = backends.Reports
	}

	s.Auth = identity.NewAuthService(repos.Tenants(), repos.Users(), jwtService, revocations, log.Named("auth"))
	s.Users = identity.NewUserService(repos.Tenants(), repos.Users(), log.Named("users"))
	s.Tenants = identity.NewTenantService(repos.Tenants(), log.Named("tenants"))
	s.Companies = company.NewCompanyService(scope, repos.Companies(), seeder, log.Named("companies"))
	s.Accounts = ledger.NewAccountService(scope, repos, log.Named("accounts"))
	s.Journal = ledger.NewJournalService(scope, repos, poster, log.Named("journal"))
	s.Products = catalog.NewProductService(repos.Products(), repos.Companies(), log.Named("products"))
	s.SalesOrders = trade.NewSalesOrderService(scope, repos, log.Named("sales_orders"))
	s.Purchases = trade.NewPurchaseOrderService(scope, repos, log.Named("purchase_orders"))
	s.Invoices = billing.NewInvoiceService(scope, repos, poster, log.Named("invoices"))
	s.Bills = billing.NewBillService(scope, repos, poster, log.Named("bills"))
	s.Documents = billing.NewDocumentService(repos, d.Printer, d.Store, d.URLExpiry, log.Named("documents"))
	s.Intercompany = intercompany.NewIntercompanyService(scope, repos, poster, backends.Idempotency, backends.Locker, log.Named("intercompany"))
	s.Intercompany.SetTTLs(d.Intercompany.IdempotencyTTL, d.Intercompany.LockTTL)
	s.Reports = report.NewReportService(repos, s.ReportCache, d.Report.CacheTTL, log.Named("reports"))
	s.Snapshots = report.NewSnapshotService(repos, s.Intercompany, d.SnapshotRecorder, log.Named("snapshots"))

	if d.Publisher != nil {
		s.Tenants.SetEventPublisher(d.Publisher)
		s.Companies.SetEventPublisher(d.Publisher)
		s.Accounts.SetEventPublisher(d.Publisher)
		s.Journal.SetEventPublisher(d.Publisher)
		s.Products.SetEventPublisher(d.Publisher)
		s.SalesOrders.SetEventPublisher(d.Publisher)
		s.Purchases.SetEventPublisher(d.Publisher)
		s.Invoices.SetEventPublisher(d.Publisher)
		s.Bills.SetEventPublisher(d.Publisher)
		s.Intercompany.SetEventPublisher(d.Publisher)
	}
	return s
}

// Handlers builds the HTTP handlers over the services
func (s *Services) Handlers(version string, checks map[string]handler.HealthCheck) router.Handlers {
	var documents *billing.DocumentService
	if s.Documents.Enabled() {
		documents = s.Documents
	}
	return router.Handlers{
		Auth:          handler.NewAuthHandler(s.Auth, s.Users),
		Tenant:        handler.NewTenantHandler(s.Tenants),
		Company:       handler.NewCompanyHandler(s.Companies),
		Ledger:        handler.NewLedgerHandler(s.Accounts, s.Journal),
		Product:       handler.NewProductHandler(s.Products),
		SalesOrder:    handler.NewOrderHandler(s.SalesOrders),
		PurchaseOrder: handler.NewOrderHandler(s.Purchases),
		Invoice:       handler.NewInvoiceHandler(s.Invoices, documents),
		Bill:          handler.NewBillHandler(s.Bills),
		Intercompany:  handler.NewIntercompanyHandler(s.Intercompany),
		Report:        handler.NewReportHandler(s.Reports, s.Snapshots),
		Health:        handler.NewHealthHandler(version, checks),
	}
}
