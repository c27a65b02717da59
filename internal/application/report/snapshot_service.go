package report

import (
	"context"
	"time"

	appic "github.com/erp/accounting/internal/application/intercompany"
	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/report"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reconciler compares the intercompany documents of two companies
type Reconciler interface {
	Reconcile(ctx context.Context, tenantID uuid.UUID, req appic.ReconcileRequest) (*appic.ReconciliationResponse, error)
}

// SnapshotRecorder receives the outcome of every snapshot check
type SnapshotRecorder interface {
	RecordBalanceCheck(tenantID, companyID uuid.UUID, balanced bool)
	RecordReconciliation(tenantID uuid.UUID, mismatches int)
}

// CompanySnapshot is the balance check of one company
type CompanySnapshot struct {
	CompanyID  uuid.UUID       `json:"company_id"`
	Code       string          `json:"code"`
	Balanced   bool            `json:"balanced"`
	Difference decimal.Decimal `json:"difference"`
}

// PairSnapshot is the reconciliation outcome of one company pair
type PairSnapshot struct {
	CompanyA     uuid.UUID `json:"company_a"`
	CompanyB     uuid.UUID `json:"company_b"`
	Transactions int       `json:"transactions"`
	Mismatches   int       `json:"mismatches"`
}

// TenantSnapshot is the nightly health check of one tenant's books
type TenantSnapshot struct {
	TenantID  uuid.UUID         `json:"tenant_id"`
	TakenAt   time.Time         `json:"taken_at"`
	Companies []CompanySnapshot `json:"companies"`
	Pairs     []PairSnapshot    `json:"pairs"`
}

// Healthy reports whether every company balances and every pair reconciles
func (s *TenantSnapshot) Healthy() bool {
	for _, c := range s.Companies {
		if !c.Balanced {
			return false
		}
	}
	for _, p := range s.Pairs {
		if p.Mismatches > 0 {
			return false
		}
	}
	return true
}

// SnapshotService checks that every ledger balances and every intercompany pair reconciles
type SnapshotService struct {
	repos      txscope.Repositories
	reconciler Reconciler
	recorder   SnapshotRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewSnapshotService creates a SnapshotService. The reconciler and recorder are optional.
func NewSnapshotService(repos txscope.Repositories, reconciler Reconciler, recorder SnapshotRecorder, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		repos:      repos,
		reconciler: reconciler,
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// RunAll snapshots every active tenant. A failing tenant is logged and skipped.
func (s *SnapshotService) RunAll(ctx context.Context) ([]TenantSnapshot, error) {
	tenantIDs, err := s.repos.Tenants().FindActiveIDs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TenantSnapshot, 0, len(tenantIDs))
	for _, tenantID := range tenantIDs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		snap, err := s.Run(ctx, tenantID)
		if err != nil {
			s.logger.Error("Balance snapshot failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
			continue
		}
		out = append(out, *snap)
	}
	return out, nil
}

// Run snapshots one tenant
func (s *SnapshotService) Run(ctx context.Context, tenantID uuid.UUID) (*TenantSnapshot, error) {
	companies, err := s.repos.Companies().FindAllForTenant(ctx, tenantID, shared.Filter{
		Filters: map[string]interface{}{"is_active": true},
	})
	if err != nil {
		return nil, err
	}

	snap := &TenantSnapshot{
		TenantID:  tenantID,
		TakenAt:   s.now(),
		Companies: make([]CompanySnapshot, 0, len(companies)),
		Pairs:     make([]PairSnapshot, 0),
	}

	for i := range companies {
		co := &companies[i]
		accounts, err := s.repos.Accounts().FindChart(ctx, tenantID, co.ID)
		if err != nil {
			return nil, err
		}
		bs := report.BuildBalanceSheet(tenantID, co.ID, snap.TakenAt, accounts)
		snap.Companies = append(snap.Companies, CompanySnapshot{
			CompanyID:  co.ID,
			Code:       co.Code,
			Balanced:   bs.Balanced,
			Difference: bs.Difference(),
		})
		if s.recorder != nil {
			s.recorder.RecordBalanceCheck(tenantID, co.ID, bs.Balanced)
		}
		if !bs.Balanced {
			s.logger.Error("Company ledger out of balance",
				zap.String("tenant_id", tenantID.String()),
				zap.String("company", co.Code),
				zap.String("difference", bs.Difference().String()))
		}
	}

	if s.reconciler != nil {
		for i := 0; i < len(companies); i++ {
			for j := i + 1; j < len(companies); j++ {
				a, b := companies[i], companies[j]
				rec, err := s.reconciler.Reconcile(ctx, tenantID, appic.ReconcileRequest{CompanyA: a.ID, CompanyB: b.ID})
				if err != nil {
					return nil, err
				}
				if rec.Transactions == 0 {
					continue
				}
				snap.Pairs = append(snap.Pairs, PairSnapshot{
					CompanyA:     a.ID,
					CompanyB:     b.ID,
					Transactions: rec.Transactions,
					Mismatches:   len(rec.Mismatches),
				})
				if s.recorder != nil {
					s.recorder.RecordReconciliation(tenantID, len(rec.Mismatches))
				}
				if !rec.Reconciled {
					s.logger.Warn("Intercompany pair does not reconcile",
						zap.String("tenant_id", tenantID.String()),
						zap.String("company_a", a.Code),
						zap.String("company_b", b.Code),
						zap.Int("mismatches", len(rec.Mismatches)))
				}
			}
		}
	}

	s.logger.Info("Balance snapshot taken",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("companies", len(snap.Companies)),
		zap.Int("pairs", len(snap.Pairs)),
		zap.Bool("healthy", snap.Healthy()))
	return snap, nil
}
