// Command seed fills a migrated database with a demo tenant: a manufacturer, a plant and a
// distributor with shared product codes, sales history and intercompany trades.
package main

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/accounting/internal/app"
	"github.com/erp/accounting/internal/application/billing"
	"github.com/erp/accounting/internal/application/catalog"
	"github.com/erp/accounting/internal/application/company"
	"github.com/erp/accounting/internal/application/identity"
	"github.com/erp/accounting/internal/application/intercompany"
	"github.com/erp/accounting/internal/application/trade"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/erp/accounting/internal/infrastructure/logger"
	"github.com/erp/accounting/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type options struct {
	tenantCode    string
	adminPassword string
	products      int
	salesOrders   int
	transactions  int
	seed          uint64
}

func main() {
	var opts options
	flag.StringVar(&opts.tenantCode, "tenant", "DEMO", "Code of the tenant to create")
	flag.StringVar(&opts.adminPassword, "admin-password", "demo-admin-pass", "Password of the admin user")
	flag.IntVar(&opts.products, "products", 12, "Products per company")
	flag.IntVar(&opts.salesOrders, "sales-orders", 20, "Invoiced sales orders at the distributor")
	flag.IntVar(&opts.transactions, "transactions", 8, "Intercompany trades from the manufacturer to the plant")
	flag.Uint64Var(&opts.seed, "seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	services := app.NewServices(app.Deps{DB: db.DB, JWT: cfg.JWT, Logger: zap.NewNop()})
	s := &seeder{services: services, faker: gofakeit.New(opts.seed), log: log, opts: opts}
	if err := s.run(context.Background()); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
}

type seeder struct {
	services *app.Services
	faker    *gofakeit.Faker
	log      *zap.Logger
	opts     options

	tenantID uuid.UUID
	// products by company code, then product code
	products map[string]map[string]*catalog.ProductResponse
}

func (s *seeder) run(ctx context.Context) error {
	tenant, err := s.services.Tenants.Create(ctx, identity.CreateTenantRequest{
		Code: s.opts.tenantCode,
		Name: s.faker.Company() + " Group",
	})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	s.tenantID = tenant.ID
	s.products = make(map[string]map[string]*catalog.ProductResponse)

	if _, err := s.services.Users.Create(ctx, tenant.ID, identity.CreateUserRequest{
		Username: "admin", Password: s.opts.adminPassword, Role: "admin",
	}); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	order := []string{"MFG", "PLANT", "DIST"}
	companies := map[string]string{"MFG": "manufacturer", "PLANT": "plant", "DIST": "distributor"}
	ids := make(map[string]uuid.UUID, len(companies))
	for _, code := range order {
		c, err := s.services.Companies.Create(ctx, tenant.ID, company.CreateCompanyRequest{
			Code:    code,
			Name:    s.faker.Company(),
			Type:    companies[code],
			Phone:   s.faker.Phone(),
			Email:   s.faker.Email(),
			Address: s.faker.Address().Address,
		})
		if err != nil {
			return fmt.Errorf("create company %s: %w", code, err)
		}
		ids[code] = c.ID
	}

	codes := s.productCodes()
	for _, code := range order {
		if err := s.seedProducts(ctx, code, ids[code], codes); err != nil {
			return err
		}
	}
	if err := s.seedSales(ctx, ids["DIST"], "DIST"); err != nil {
		return err
	}
	if err := s.seedIntercompany(ctx, ids["MFG"], ids["PLANT"]); err != nil {
		return err
	}

	s.log.Info("Demo tenant seeded",
		zap.String("tenant_code", tenant.Code),
		zap.String("tenant_id", tenant.ID.String()),
		zap.Int("products_per_company", len(codes)),
		zap.Int("sales_orders", s.opts.salesOrders),
		zap.Int("intercompany_transactions", s.opts.transactions))
	return nil
}

func (s *seeder) productCodes() []string {
	seen := make(map[string]bool, s.opts.products)
	codes := make([]string, 0, s.opts.products)
	for len(codes) < s.opts.products {
		code := fmt.Sprintf("%s-%03d", strings.ToUpper(s.faker.LetterN(3)), s.faker.Number(1, 999))
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

func (s *seeder) seedProducts(ctx context.Context, companyCode string, companyID uuid.UUID, codes []string) error {
	s.products[companyCode] = make(map[string]*catalog.ProductResponse, len(codes))
	for _, code := range codes {
		cost := s.faker.Price(5, 400)
		p, err := s.services.Products.Create(ctx, s.tenantID, companyID, catalog.CreateProductRequest{
			Code:          code,
			Name:          s.faker.ProductName(),
			Description:   s.faker.Sentence(8),
			Unit:          "pcs",
			PurchasePrice: money(cost),
			SalesPrice:    money(cost * s.faker.Float64Range(1.1, 1.8)),
		})
		if err != nil {
			return fmt.Errorf("create product %s/%s: %w", companyCode, code, err)
		}
		s.products[companyCode][code] = p
	}
	return nil
}

func (s *seeder) pick(companyCode string) *catalog.ProductResponse {
	catalogue := s.products[companyCode]
	keys := slices.Sorted(maps.Keys(catalogue))
	return catalogue[keys[s.faker.IntN(len(keys))]]
}

func (s *seeder) seedSales(ctx context.Context, companyID uuid.UUID, companyCode string) error {
	for i := 0; i < s.opts.salesOrders; i++ {
		date := s.faker.DateRange(time.Now().AddDate(0, -6, 0), time.Now())
		items := make([]trade.OrderItemInput, 0, 3)
		for n := s.faker.Number(1, 3); n > 0; n-- {
			items = append(items, trade.OrderItemInput{
				ProductID: s.pick(companyCode).ID,
				Quantity:  decimal.NewFromInt(int64(s.faker.Number(1, 20))),
			})
		}
		order, err := s.services.SalesOrders.Create(ctx, s.tenantID, companyID, trade.CreateOrderRequest{
			OrderDate: date,
			Notes:     s.faker.Sentence(6),
			Items:     items,
		})
		if err != nil {
			return fmt.Errorf("create sales order: %w", err)
		}
		if _, err := s.services.SalesOrders.Confirm(ctx, s.tenantID, companyID, order.ID); err != nil {
			return fmt.Errorf("confirm sales order %s: %w", order.OrderNumber, err)
		}
		invoice, err := s.services.Invoices.CreateFromOrder(ctx, s.tenantID, companyID, billing.CreateFromOrderRequest{
			OrderID: order.ID, IssueDate: date,
		})
		if err != nil {
			return fmt.Errorf("invoice sales order %s: %w", order.OrderNumber, err)
		}
		if _, err := s.services.Invoices.Issue(ctx, s.tenantID, companyID, invoice.ID); err != nil {
			return fmt.Errorf("issue invoice %s: %w", invoice.Number, err)
		}
		// Roughly a third stays open, a third is part paid
		switch s.faker.Number(0, 2) {
		case 0:
			continue
		case 1:
			_, err = s.services.Invoices.RecordReceipt(ctx, s.tenantID, companyID, invoice.ID, billing.RecordPaymentRequest{
				Amount: invoice.TotalAmount.Div(decimal.NewFromInt(2)).Round(2), Method: "bank_transfer",
			})
		default:
			_, err = s.services.Invoices.RecordReceipt(ctx, s.tenantID, companyID, invoice.ID, billing.RecordPaymentRequest{
				Amount: invoice.TotalAmount, Method: "bank_transfer", Reference: s.faker.UUID(),
			})
		}
		if err != nil {
			return fmt.Errorf("receipt for invoice %s: %w", invoice.Number, err)
		}
	}
	return nil
}

func (s *seeder) seedIntercompany(ctx context.Context, source, target uuid.UUID) error {
	for i := 0; i < s.opts.transactions; i++ {
		txn, err := s.services.Intercompany.Create(ctx, s.tenantID, intercompany.CreateTransactionRequest{
			SourceCompanyID: source,
			TargetCompanyID: target,
			Description:     s.faker.Sentence(5),
			Items: []trade.OrderItemInput{{
				ProductID: s.pick("MFG").ID,
				Quantity:  decimal.NewFromInt(int64(s.faker.Number(5, 50))),
			}},
			IdempotencyKey: fmt.Sprintf("seed-%s-create-%d", s.opts.tenantCode, i),
		})
		if err != nil {
			return fmt.Errorf("create intercompany trade: %w", err)
		}
		if i%4 == 3 {
			continue
		}
		txn, err = s.services.Intercompany.Invoice(ctx, s.tenantID, txn.ID, intercompany.InvoiceTransactionRequest{})
		if err != nil {
			return fmt.Errorf("invoice intercompany trade %s: %w", txn.Number, err)
		}
		if i%2 == 0 {
			if _, err := s.services.Intercompany.Settle(ctx, s.tenantID, txn.ID, intercompany.SettleTransactionRequest{
				Amount:         txn.Outstanding,
				IdempotencyKey: fmt.Sprintf("seed-%s-settle-%d", s.opts.tenantCode, i),
			}); err != nil {
				return fmt.Errorf("settle intercompany trade %s: %w", txn.Number, err)
			}
		}
	}
	return nil
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
