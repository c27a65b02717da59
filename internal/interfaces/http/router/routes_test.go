package router_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/erp/accounting/internal/application/billing"
	"github.com/erp/accounting/internal/application/catalog"
	"github.com/erp/accounting/internal/application/company"
	"github.com/erp/accounting/internal/application/intercompany"
	"github.com/erp/accounting/internal/application/ledger"
	"github.com/erp/accounting/internal/application/report"
	"github.com/erp/accounting/internal/application/trade"
	domainreport "github.com/erp/accounting/internal/domain/report"
	"github.com/erp/accounting/internal/interfaces/http/handler"
	"github.com/erp/accounting/tests/testutil/apitest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAPI_Authentication(t *testing.T) {
	api := apitest.New(t, "HQ")

	t.Run("missing token", func(t *testing.T) {
		w := api.DoWith(t, http.MethodGet, "/api/v1/companies", nil, nil)
		apitest.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("garbage token", func(t *testing.T) {
		w := api.DoWith(t, http.MethodGet, "/api/v1/companies", nil, map[string]string{"Authorization": "Bearer nope"})
		apitest.AssertError(t, w, http.StatusUnauthorized, "INVALID_TOKEN")
	})

	t.Run("token endpoint", func(t *testing.T) {
		w := api.DoWith(t, http.MethodPost, "/api/v1/auth/token", map[string]string{
			"tenant_code": "test", "username": "admin", "password": "wrong-password",
		}, nil)
		apitest.AssertError(t, w, http.StatusUnauthorized, "INVALID_CREDENTIALS")

		w = api.DoWith(t, http.MethodPost, "/api/v1/auth/token", map[string]string{
			"tenant_code": "test", "username": "admin", "password": "correct-horse-battery",
		}, nil)
		env := apitest.Decode[map[string]any](t, w, http.StatusOK)
		assert.NotEmpty(t, env.Data["access_token"])
		assert.NotEmpty(t, env.Data["refresh_token"])
	})

	t.Run("me", func(t *testing.T) {
		env := apitest.Decode[map[string]any](t, api.Do(t, http.MethodGet, "/api/v1/auth/me", nil), http.StatusOK)
		assert.Equal(t, "admin", env.Data["username"])
	})

	t.Run("tenant header must match the token", func(t *testing.T) {
		w := api.DoWith(t, http.MethodGet, "/api/v1/companies", nil, map[string]string{
			"Authorization": "Bearer " + api.Token,
			"X-Tenant-ID":   uuid.NewString(),
		})
		apitest.AssertError(t, w, http.StatusForbidden, "TENANT_MISMATCH")
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		token := api.Login(t, "leaving", "accountant")
		headers := map[string]string{"Authorization": "Bearer " + token}
		apitest.AssertStatus(t, api.DoWith(t, http.MethodPost, "/api/v1/auth/logout", nil, headers), http.StatusNoContent)
		w := api.DoWith(t, http.MethodGet, "/api/v1/auth/me", nil, headers)
		apitest.AssertError(t, w, http.StatusUnauthorized, "INVALID_TOKEN")
	})
}

func TestAPI_Roles(t *testing.T) {
	api := apitest.New(t, "HQ")
	hq := api.Books.CompanyID(t, "HQ")

	viewer := map[string]string{"Authorization": "Bearer " + api.Login(t, "auditor", "viewer")}
	accountant := map[string]string{"Authorization": "Bearer " + api.Login(t, "clerk", "accountant")}

	t.Run("viewers read", func(t *testing.T) {
		w := api.DoWith(t, http.MethodGet, "/api/v1/companies/"+hq.String()+"/accounts", nil, viewer)
		apitest.AssertStatus(t, w, http.StatusOK)
	})

	t.Run("viewers cannot write", func(t *testing.T) {
		w := api.DoWith(t, http.MethodPost, "/api/v1/companies/"+hq.String()+"/products",
			catalog.CreateProductRequest{Code: "P1", Name: "Widget"}, viewer)
		apitest.AssertError(t, w, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("only admins manage tenants", func(t *testing.T) {
		w := api.DoWith(t, http.MethodGet, "/api/v1/tenants", nil, accountant)
		apitest.AssertError(t, w, http.StatusForbidden, "FORBIDDEN")

		env := apitest.Decode[[]map[string]any](t, api.Do(t, http.MethodGet, "/api/v1/tenants", nil), http.StatusOK)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(1), env.Meta.Total)
	})
}

func TestAPI_Companies(t *testing.T) {
	api := apitest.New(t)

	env := apitest.Decode[company.CompanyResponse](t, api.Do(t, http.MethodPost, "/api/v1/companies", company.CreateCompanyRequest{
		Code: "north", Name: "North Plant", Type: "plant",
	}), http.StatusCreated)
	assert.Equal(t, "NORTH", env.Data.Code)
	base := "/api/v1/companies/" + env.Data.ID.String()

	t.Run("duplicate code conflicts", func(t *testing.T) {
		w := api.Do(t, http.MethodPost, "/api/v1/companies", company.CreateCompanyRequest{Code: "NORTH", Name: "Again", Type: "plant"})
		apitest.AssertError(t, w, http.StatusConflict, "ALREADY_EXISTS")
	})

	t.Run("validation", func(t *testing.T) {
		w := api.Do(t, http.MethodPost, "/api/v1/companies", map[string]string{"code": "X"})
		apitest.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("new companies get the default chart", func(t *testing.T) {
		accounts := apitest.Decode[[]ledger.AccountResponse](t, api.Do(t, http.MethodGet, base+"/accounts?page_size=100", nil), http.StatusOK)
		assert.NotEmpty(t, accounts.Data)
		tb := apitest.Decode[map[string]any](t, api.Do(t, http.MethodGet, base+"/accounts/trial-balance", nil), http.StatusOK)
		assert.Equal(t, true, tb.Data["balanced"])
	})

	t.Run("malformed and unknown ids", func(t *testing.T) {
		apitest.AssertError(t, api.Do(t, http.MethodGet, "/api/v1/companies/not-a-uuid", nil), http.StatusBadRequest, "INVALID_ID")
		w := api.Do(t, http.MethodGet, "/api/v1/companies/"+uuid.NewString(), nil)
		apitest.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("unknown route", func(t *testing.T) {
		apitest.AssertError(t, api.Do(t, http.MethodGet, "/api/v1/nowhere", nil), http.StatusNotFound, "NOT_FOUND")
	})
}

func TestAPI_SalesCycle(t *testing.T) {
	api := apitest.New(t, "HQ")
	base := "/api/v1/companies/" + api.Books.CompanyID(t, "HQ").String()

	product := apitest.Decode[catalog.ProductResponse](t, api.Do(t, http.MethodPost, base+"/products", catalog.CreateProductRequest{
		Code: "W-1", Name: "Widget", SalesPrice: amount("120"), PurchasePrice: amount("80"),
	}), http.StatusCreated).Data

	order := apitest.Decode[trade.OrderResponse](t, api.Do(t, http.MethodPost, base+"/sales-orders", trade.CreateOrderRequest{
		Items: []trade.OrderItemInput{{ProductID: product.ID, Quantity: amount("5")}},
	}), http.StatusCreated).Data
	assert.Equal(t, "draft", string(order.Status))
	assert.True(t, amount("600").Equal(order.TotalAmount))

	confirmed := apitest.Decode[trade.OrderResponse](t, api.Do(t, http.MethodPost, base+"/sales-orders/"+order.ID.String()+"/confirm", nil), http.StatusOK).Data
	assert.Equal(t, "confirmed", string(confirmed.Status))

	invoice := apitest.Decode[billing.DocumentResponse](t, api.Do(t, http.MethodPost, base+"/invoices/from-order", billing.CreateFromOrderRequest{
		OrderID: order.ID,
	}), http.StatusCreated).Data
	assert.Equal(t, "pending", string(invoice.Status))
	invoicePath := base + "/invoices/" + invoice.ID.String()

	apitest.AssertStatus(t, api.Do(t, http.MethodPost, invoicePath+"/issue", nil), http.StatusOK)

	t.Run("overpayment is refused", func(t *testing.T) {
		w := api.Do(t, http.MethodPost, invoicePath+"/receipts", billing.RecordPaymentRequest{Amount: amount("600.01")})
		apitest.AssertStatus(t, w, http.StatusUnprocessableEntity)
	})

	receipt := apitest.Decode[billing.PaymentResult](t, api.Do(t, http.MethodPost, invoicePath+"/receipts", billing.RecordPaymentRequest{
		Amount: amount("600"), Method: "bank_transfer",
	}), http.StatusCreated).Data
	assert.Equal(t, "paid", string(receipt.Document.Status))

	receipts := apitest.Decode[[]billing.PaymentResponse](t, api.Do(t, http.MethodGet, invoicePath+"/receipts", nil), http.StatusOK)
	assert.Len(t, receipts.Data, 1)

	t.Run("reports", func(t *testing.T) {
		bs := apitest.Decode[domainreport.BalanceSheet](t, api.Do(t, http.MethodGet, base+"/reports/balance-sheet", nil), http.StatusOK).Data
		assert.True(t, bs.Balanced)
		assert.True(t, amount("600").Equal(bs.TotalAssets))

		is := apitest.Decode[domainreport.IncomeStatement](t, api.Do(t, http.MethodGet, base+"/reports/income-statement", nil), http.StatusOK).Data
		assert.True(t, amount("600").Equal(is.TotalRevenue))

		w := api.Do(t, http.MethodGet, base+"/reports/balance-sheet.xlsx", nil)
		apitest.AssertStatus(t, w, http.StatusOK)
		assert.Equal(t, report.XLSXContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
		assert.NotZero(t, w.Body.Len())

		apitest.AssertError(t, api.Do(t, http.MethodGet, base+"/reports/balance-sheet?as_of=yesterday", nil), http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("printing is off by default", func(t *testing.T) {
		w := api.Do(t, http.MethodGet, invoicePath+"/document", nil)
		apitest.AssertError(t, w, http.StatusServiceUnavailable, "PRINTING_DISABLED")
	})
}

func TestAPI_Intercompany(t *testing.T) {
	api := apitest.New(t, "MFG", "PLANT")
	mfg := api.Books.CompanyID(t, "MFG")
	plant := api.Books.CompanyID(t, "PLANT")
	gear := api.Books.Product(t, "MFG", "GEAR", 100, 60)
	api.Books.Product(t, "PLANT", "GEAR", 150, 100)

	create := intercompany.CreateTransactionRequest{
		SourceCompanyID: mfg,
		TargetCompanyID: plant,
		Items:           []trade.OrderItemInput{{ProductID: gear.ID, Quantity: amount("4")}},
	}
	keyed := map[string]string{"Authorization": "Bearer " + api.Token, "Idempotency-Key": "ic-create-1"}

	txn := apitest.Decode[intercompany.TransactionResponse](t, api.DoWith(t, http.MethodPost, "/api/v1/intercompany", create, keyed), http.StatusCreated).Data
	assert.Equal(t, "ordered", string(txn.Status))
	assert.True(t, amount("400").Equal(txn.Amount))

	replay := apitest.Decode[intercompany.TransactionResponse](t, api.DoWith(t, http.MethodPost, "/api/v1/intercompany", create, keyed), http.StatusCreated).Data
	assert.Equal(t, txn.ID, replay.ID, "replayed create returns the first transaction")

	t.Run("idempotency keys longer than the stored column are refused", func(t *testing.T) {
		long := map[string]string{"Authorization": "Bearer " + api.Token,
			"Idempotency-Key": strings.Repeat("k", handler.MaxIdempotencyKeyLength+1)}
		apitest.AssertError(t, api.DoWith(t, http.MethodPost, "/api/v1/intercompany", create, long), http.StatusBadRequest, "BAD_REQUEST")

		list := apitest.Decode[[]intercompany.TransactionResponse](t, api.Do(t, http.MethodGet, "/api/v1/intercompany?company_id="+plant.String(), nil), http.StatusOK)
		require.NotNil(t, list.Meta)
		assert.Equal(t, int64(1), list.Meta.Total, "a refused key creates nothing")
	})

	list := apitest.Decode[[]intercompany.TransactionResponse](t, api.Do(t, http.MethodGet, "/api/v1/intercompany?company_id="+plant.String(), nil), http.StatusOK)
	require.NotNil(t, list.Meta)
	assert.Equal(t, int64(1), list.Meta.Total)

	path := "/api/v1/intercompany/" + txn.ID.String()
	invoiced := apitest.Decode[intercompany.TransactionResponse](t, api.Do(t, http.MethodPost, path+"/invoice", nil), http.StatusOK).Data
	assert.Equal(t, "invoiced", string(invoiced.Status))
	require.NotNil(t, invoiced.InvoiceID)
	require.NotNil(t, invoiced.BillID)

	t.Run("consolidation eliminates the open balance", func(t *testing.T) {
		w := api.Do(t, http.MethodGet, "/api/v1/reports/consolidated-balance-sheet?company_ids="+mfg.String()+","+plant.String(), nil)
		bs := apitest.Decode[domainreport.BalanceSheet](t, w, http.StatusOK).Data
		assert.True(t, bs.Consolidated)
		assert.True(t, bs.Balanced)
		assert.NotEmpty(t, bs.Eliminations)

		w = api.Do(t, http.MethodGet, "/api/v1/reports/consolidated-balance-sheet?company_ids=bogus", nil)
		apitest.AssertError(t, w, http.StatusBadRequest, "INVALID_ID")
	})

	settleKey := map[string]string{"Authorization": "Bearer " + api.Token, "Idempotency-Key": "ic-settle-1"}
	settle := intercompany.SettleTransactionRequest{Amount: amount("400")}
	settled := apitest.Decode[intercompany.TransactionResponse](t, api.DoWith(t, http.MethodPost, path+"/settle", settle, settleKey), http.StatusOK).Data
	assert.Equal(t, "settled", string(settled.Status))
	assert.True(t, settled.Outstanding.IsZero())

	again := apitest.Decode[intercompany.TransactionResponse](t, api.DoWith(t, http.MethodPost, path+"/settle", settle, settleKey), http.StatusOK).Data
	assert.Len(t, again.Settlements, 1, "replayed settlement posts once")

	rec := apitest.Decode[intercompany.ReconciliationResponse](t,
		api.Do(t, http.MethodGet, "/api/v1/intercompany/reconcile?company_a="+mfg.String()+"&company_b="+plant.String(), nil), http.StatusOK).Data
	assert.True(t, rec.Reconciled)
	assert.Equal(t, 1, rec.Transactions)

	apitest.AssertError(t, api.Do(t, http.MethodGet, "/api/v1/intercompany/reconcile?company_a="+mfg.String(), nil), http.StatusBadRequest, "BAD_REQUEST")

	snapshot := apitest.Decode[report.TenantSnapshot](t, api.Do(t, http.MethodPost, "/api/v1/reports/snapshot", nil), http.StatusOK).Data
	assert.True(t, snapshot.Healthy())
	assert.Len(t, snapshot.Companies, 2)

	assert.Contains(t, api.Events.Types(), "IntercompanySettled")
}

func TestAPI_SystemRoutes(t *testing.T) {
	api := apitest.New(t)

	env := apitest.Decode[map[string]any](t, api.DoWith(t, http.MethodGet, "/health", nil, nil), http.StatusOK)
	assert.Equal(t, "ok", env.Data["status"])

	w := api.DoWith(t, http.MethodGet, "/health", nil, map[string]string{"X-Request-ID": "trace-me"})
	assert.Equal(t, "trace-me", w.Header().Get("X-Request-ID"))
}
