package usage

import (
	"context"
	"time"

	"github.com/drawspace/drawspace-backend/internal/accounts"
	"github.com/drawspace/drawspace-backend/pkg/db/models"
	"github.com/drawspace/drawspace-backend/pkg/enums"
	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
	"github.com/drawspace/drawspace-backend/pkg/logger"
	"github.com/google/uuid"
)

const monthLayout = "2006-01"

// Summary is the usage picture for one account in the current month.
type Summary struct {
	AccountID  uuid.UUID
	ExternalID string
	PlanName   string
	Limit      int
	Used       int
	CacheHit   bool
}

// LimitReached reports whether the ceiling has been hit. A negative limit is
// the "unlimited" sentinel and never blocks.
func (s Summary) LimitReached() bool {
	if s.Limit < 0 {
		return false
	}
	return s.Used >= s.Limit
}

// RecordInput describes one billable action to append to the event log.
type RecordInput struct {
	AccountID  uuid.UUID
	ExternalID string
	Action     enums.ActionType
}

// Service computes and records metered usage. The event log is the single
// source of truth; the snapshot cache is a latency optimization whose
// failures never surface to callers.
type Service interface {
	GetUsage(ctx context.Context, externalID string) (*Summary, error)
	RecordUsage(ctx context.Context, in RecordInput) error
}

type ServiceParams struct {
	Repo  accounts.Repository
	Cache SnapshotCache
	Log   *logger.Logger

	// Now overrides the clock, used by tests. Defaults to time.Now.
	Now func() time.Time
}

type service struct {
	repo  accounts.Repository
	cache SnapshotCache
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "accounts repo required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "snapshot cache required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:  params.Repo,
		cache: params.Cache,
		logg:  params.Log,
		now:   now,
	}, nil
}

// monthWindow returns the current month label plus the [start, end) instant
// range in the server's local time zone.
func monthWindow(now time.Time) (string, time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return now.Format(monthLayout), start, start.AddDate(0, 1, 0)
}

func (s *service) GetUsage(ctx context.Context, externalID string) (*Summary, error) {
	if externalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external identity is required")
	}

	month, from, to := monthWindow(s.now())

	var snapshot *Snapshot
	if snap, err := s.cache.Get(ctx, externalID); err != nil {
		s.warn(ctx, "usage.cache.read_failed", err)
	} else {
		snapshot = snap
	}

	cacheHit := snapshot != nil && snapshot.Month == month

	account, err := s.repo.FindAccountByExternalID(ctx, externalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}

	sub, plan, err := s.repo.FindSubscriptionWithPlan(ctx, account.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil || plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}

	summary := &Summary{
		AccountID:  account.ID,
		ExternalID: externalID,
		PlanName:   plan.Name,
		CacheHit:   cacheHit,
	}

	if cacheHit {
		summary.Used = snapshot.CurrentUsage
		summary.Limit = snapshot.PlanLimit
		return summary, nil
	}

	count, err := s.repo.CountUsageEvents(ctx, account.ID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count usage events")
	}
	summary.Used = int(count)
	summary.Limit = plan.MonthlyLimit

	if err := s.cache.Set(ctx, externalID, Snapshot{
		CurrentUsage: summary.Used,
		PlanLimit:    plan.MonthlyLimit,
		Month:        month,
	}); err != nil {
		s.warn(ctx, "usage.cache.write_failed", err)
	}

	return summary, nil
}

func (s *service) RecordUsage(ctx context.Context, in RecordInput) error {
	if in.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if !in.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown action type")
	}

	// The durable event comes first. If it fails the cache stays untouched:
	// no optimistic increment without a persisted event.
	event := &models.UsageEvent{
		AccountID: in.AccountID,
		Action:    in.Action,
	}
	if err := s.repo.CreateUsageEvent(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record usage event")
	}

	if in.ExternalID == "" {
		return nil
	}

	month, _, _ := monthWindow(s.now())
	snapshot, err := s.cache.Get(ctx, in.ExternalID)
	if err != nil {
		s.warn(ctx, "usage.cache.read_failed", err)
		return nil
	}
	if snapshot == nil || snapshot.Month != month {
		// Stale or absent: the next GetUsage recomputes from the log.
		return nil
	}

	if err := s.cache.Set(ctx, in.ExternalID, Snapshot{
		CurrentUsage: snapshot.CurrentUsage + 1,
		PlanLimit:    snapshot.PlanLimit,
		Month:        month,
	}); err != nil {
		s.warn(ctx, "usage.cache.write_failed", err)
	}
	return nil
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "cause", err.Error()), msg)
}
