package report

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/report"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// Cache stores serialized report responses
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// ReportService derives financial statements from company ledgers.
// Reports are read-only: they never post or change balances.
type ReportService struct {
	repos  txscope.Repositories
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService creates a ReportService. A nil cache disables caching.
func NewReportService(repos txscope.Repositories, cache Cache, ttl time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ReportService{
		repos:  repos,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// BalanceSheet reports assets, liabilities and equity of one company.
// A zero asOf uses the current account balances.
func (s *ReportService) BalanceSheet(ctx context.Context, tenantID, companyID uuid.UUID, asOf time.Time) (*report.BalanceSheet, error) {
	if _, err := s.repos.Companies().FindByIDForTenant(ctx, tenantID, companyID); err != nil {
		return nil, err
	}
	key := companyKey(tenantID, companyID, "balance-sheet", dateKey(asOf))
	return cached(ctx, s, key, func() (*report.BalanceSheet, error) {
		accounts, err := s.chart(ctx, tenantID, companyID, time.Time{}, asOf)
		if err != nil {
			return nil, err
		}
		return report.BuildBalanceSheet(tenantID, companyID, s.reportDate(asOf), accounts), nil
	})
}

// IncomeStatement reports revenue, expense and net income.
// Without a period it covers everything posted so far.
func (s *ReportService) IncomeStatement(ctx context.Context, tenantID, companyID uuid.UUID, from, to time.Time) (*report.IncomeStatement, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period start must not be after its end")
	}
	if _, err := s.repos.Companies().FindByIDForTenant(ctx, tenantID, companyID); err != nil {
		return nil, err
	}
	key := companyKey(tenantID, companyID, "income-statement", dateKey(from)+".."+dateKey(to))
	return cached(ctx, s, key, func() (*report.IncomeStatement, error) {
		accounts, err := s.chart(ctx, tenantID, companyID, from, to)
		if err != nil {
			return nil, err
		}
		return report.BuildIncomeStatement(tenantID, companyID, from, to, accounts), nil
	})
}

// TrialBalance lists debit and credit balances per account as of a date
func (s *ReportService) TrialBalance(ctx context.Context, tenantID, companyID uuid.UUID, asOf time.Time) (*ledger.TrialBalance, error) {
	if _, err := s.repos.Companies().FindByIDForTenant(ctx, tenantID, companyID); err != nil {
		return nil, err
	}
	accounts, err := s.chart(ctx, tenantID, companyID, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}
	return ledger.BuildTrialBalance(companyID, accounts), nil
}

// ConsolidatedBalanceSheet sums the balance sheets of several companies and eliminates
// their intercompany balances. Without IDs every active company of the tenant is included.
func (s *ReportService) ConsolidatedBalanceSheet(ctx context.Context, tenantID uuid.UUID, companyIDs []uuid.UUID, asOf time.Time) (*report.BalanceSheet, error) {
	companies, err := s.consolidationScope(ctx, tenantID, companyIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(companies))
	for i := range companies {
		ids[i] = companies[i].ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	key := consolidatedKey(tenantID, report.ScopeKey(ids), dateKey(asOf))
	return cached(ctx, s, key, func() (*report.BalanceSheet, error) {
		charts := make(map[uuid.UUID][]ledger.Account, len(ids))
		for _, id := range ids {
			accounts, err := s.chart(ctx, tenantID, id, time.Time{}, asOf)
			if err != nil {
				return nil, err
			}
			charts[id] = accounts
		}
		return report.BuildConsolidatedBalanceSheet(tenantID, s.reportDate(asOf), charts), nil
	})
}

// consolidationScope resolves the companies to consolidate.
// An ID that does not belong to the tenant is reported as not found.
func (s *ReportService) consolidationScope(ctx context.Context, tenantID uuid.UUID, companyIDs []uuid.UUID) ([]company.Company, error) {
	if len(companyIDs) == 0 {
		companies, err := s.repos.Companies().FindAllForTenant(ctx, tenantID, shared.Filter{
			Filters: map[string]interface{}{"is_active": true},
		})
		if err != nil {
			return nil, err
		}
		if len(companies) == 0 {
			return nil, shared.NewDomainError("NO_COMPANIES", "Tenant has no active companies to consolidate")
		}
		return companies, nil
	}

	unique := make([]uuid.UUID, 0, len(companyIDs))
	seen := make(map[uuid.UUID]struct{}, len(companyIDs))
	for _, id := range companyIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	companies, err := s.repos.Companies().FindByIDsForTenant(ctx, tenantID, unique)
	if err != nil {
		return nil, err
	}
	if len(companies) != len(unique) {
		return nil, shared.ErrNotFound
	}
	return companies, nil
}

// chart loads a company's accounts. With a bound on either side the balances
// are rebuilt from postings dated inside [from, to].
func (s *ReportService) chart(ctx context.Context, tenantID, companyID uuid.UUID, from, to time.Time) ([]ledger.Account, error) {
	accounts, err := s.repos.Accounts().FindChart(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	if from.IsZero() && to.IsZero() {
		return accounts, nil
	}
	movements, err := s.repos.Journals().SumByAccount(ctx, tenantID, companyID, from, endOfDay(to))
	if err != nil {
		return nil, err
	}
	return ledger.WithMovements(accounts, movements), nil
}

func (s *ReportService) reportDate(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return s.now()
	}
	return asOf
}

// cached serves a report from the cache or builds and stores it.
// Cache failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *ReportService, key string, build func() (*T, error)) (*T, error) {
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("Report cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			var out T
			if err := json.Unmarshal(data, &out); err == nil {
				return &out, nil
			}
			s.logger.Warn("Discarding unreadable cached report", zap.String("key", key))
		}
	}

	out, err := build()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		data, err := json.Marshal(out)
		if err == nil {
			err = s.cache.Set(ctx, key, data, s.ttl)
		}
		if err != nil {
			s.logger.Warn("Report cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

// CompanyPrefix is the cache key prefix of every report of one company
func CompanyPrefix(tenantID, companyID uuid.UUID) string {
	return tenantID.String() + ":" + companyID.String() + ":"
}

// ConsolidatedPrefix is the cache key prefix of every consolidated report of a tenant
func ConsolidatedPrefix(tenantID uuid.UUID) string {
	return tenantID.String() + ":consolidated:"
}

func companyKey(tenantID, companyID uuid.UUID, name, variant string) string {
	return CompanyPrefix(tenantID, companyID) + name + ":" + variant
}

func consolidatedKey(tenantID uuid.UUID, scope, variant string) string {
	return ConsolidatedPrefix(tenantID) + scope + ":" + variant
}

// endOfDay widens a bare date to cover every posting made on that day
func endOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	if !t.Equal(time.Date(y, m, d, 0, 0, 0, 0, t.Location())) {
		return t
	}
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func dateKey(t time.Time) string {
	if t.IsZero() {
		return "latest"
	}
	return t.UTC().Format("2006-01-02")
}
