package subscriptions

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/drawspace/drawspace-backend/internal/accounts"
	"github.com/drawspace/drawspace-backend/pkg/db/models"
	"github.com/drawspace/drawspace-backend/pkg/enums"
	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
)

type fakeRepo struct {
	plans map[string]*models.Plan
	subs  map[uuid.UUID]*models.Subscription

	creates int
	updates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans: map[string]*models.Plan{},
		subs:  map[uuid.UUID]*models.Subscription{},
	}
}

func (f *fakeRepo) addPlan(plan *models.Plan) { f.plans[plan.ID] = plan }

func (f *fakeRepo) findByStripeID(id string) *models.Subscription {
	for _, sub := range f.subs {
		if sub.StripeSubscriptionID == id {
			return sub
		}
	}
	return nil
}

func (f *fakeRepo) WithTx(tx *gorm.DB) accounts.Repository { return f }

func (f *fakeRepo) FindAccountByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	return nil, nil
}

func (f *fakeRepo) CreateAccount(ctx context.Context, account *models.Account) error { return nil }

func (f *fakeRepo) FindPlanByID(ctx context.Context, id string) (*models.Plan, error) {
	return f.plans[id], nil
}

func (f *fakeRepo) FindPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	for _, plan := range f.plans {
		if plan.Name == name {
			return plan, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindSubscriptionByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	return f.subs[accountID], nil
}

func (f *fakeRepo) FindSubscriptionWithPlan(ctx context.Context, accountID uuid.UUID) (*models.Subscription, *models.Plan, error) {
	sub := f.subs[accountID]
	if sub == nil {
		return nil, nil, nil
	}
	return sub, f.plans[sub.PlanID], nil
}

func (f *fakeRepo) CreateSubscription(ctx context.Context, subscription *models.Subscription) error {
	f.creates++
	if subscription.ID == uuid.Nil {
		subscription.ID = uuid.New()
	}
	f.subs[subscription.AccountID] = subscription
	return nil
}

func (f *fakeRepo) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	f.updates++
	f.subs[subscription.AccountID] = subscription
	return nil
}

func (f *fakeRepo) UpdateSubscriptionStatusByStripeID(ctx context.Context, id string, status enums.SubscriptionStatus) (int64, error) {
	sub := f.findByStripeID(id)
	if sub == nil {
		return 0, nil
	}
	sub.Status = status
	return 1, nil
}

func (f *fakeRepo) CancelSubscriptionByStripeID(ctx context.Context, id, defaultPlanID string) (int64, error) {
	sub := f.findByStripeID(id)
	if sub == nil {
		return 0, nil
	}
	sub.Status = enums.SubscriptionStatusCancelled
	sub.PlanID = defaultPlanID
	return 1, nil
}

func (f *fakeRepo) CreateUsageEvent(ctx context.Context, event *models.UsageEvent) error { return nil }

func (f *fakeRepo) CountUsageEvents(ctx context.Context, accountID uuid.UUID, from, to time.Time) (int64, error) {
	return 0, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *fakeRepo) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, TransactionRunner: fakeTxRunner{}})
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}
	return svc
}

func checkoutEvent(t *testing.T, accountID uuid.UUID, planID string) *stripe.Event {
	t.Helper()
	session := &stripe.CheckoutSession{
		ClientReferenceID: accountID.String(),
		Metadata:          map[string]string{"plan_id": planID},
		Customer:          &stripe.Customer{ID: "cus_123"},
		Subscription:      &stripe.Subscription{ID: "sub_123"},
	}
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func subscriptionEvent(t *testing.T, eventType stripe.EventType, stripeSubID string, status stripe.SubscriptionStatus) *stripe.Event {
	t.Helper()
	sub := &stripe.Subscription{ID: stripeSubID, Status: status}
	raw, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("marshal subscription: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEvent_CheckoutCompletedCreatesSubscription(t *testing.T) {
	repo := newFakeRepo()
	repo.addPlan(&models.Plan{ID: "plan-pro", Name: "pro", MonthlyLimit: 100})
	svc := newTestService(t, repo)
	accountID := uuid.New()

	if err := svc.HandleEvent(context.Background(), checkoutEvent(t, accountID, "plan-pro")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	sub := repo.subs[accountID]
	if sub == nil {
		t.Fatal("expected subscription created")
	}
	if sub.PlanID != "plan-pro" || sub.Status != enums.SubscriptionStatusActive {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.StripeCustomerID != "cus_123" || sub.StripeSubscriptionID != "sub_123" {
		t.Fatalf("stripe references not captured: %+v", sub)
	}
}

func TestHandleEvent_CheckoutCompletedIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.addPlan(&models.Plan{ID: "plan-pro", Name: "pro", MonthlyLimit: 100})
	svc := newTestService(t, repo)
	accountID := uuid.New()
	event := checkoutEvent(t, accountID, "plan-pro")

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	firstID := repo.subs[accountID].ID

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(repo.subs) != 1 {
		t.Fatalf("expected one subscription row, got %d", len(repo.subs))
	}
	if repo.subs[accountID].ID != firstID {
		t.Fatal("redelivery must update the existing row, not create another")
	}
	if repo.creates != 1 || repo.updates != 1 {
		t.Fatalf("expected 1 create and 1 update, got %d/%d", repo.creates, repo.updates)
	}
}

func TestHandleEvent_CheckoutCompletedUpgradesExistingPlan(t *testing.T) {
	repo := newFakeRepo()
	repo.addPlan(&models.Plan{ID: "plan-free", Name: "free", MonthlyLimit: 10})
	repo.addPlan(&models.Plan{ID: "plan-pro", Name: "pro", MonthlyLimit: 100})
	accountID := uuid.New()
	repo.subs[accountID] = &models.Subscription{
		ID:        uuid.New(),
		AccountID: accountID,
		PlanID:    "plan-free",
		Status:    enums.SubscriptionStatusActive,
	}
	svc := newTestService(t, repo)

	if err := svc.HandleEvent(context.Background(), checkoutEvent(t, accountID, "plan-pro")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := repo.subs[accountID].PlanID; got != "plan-pro" {
		t.Fatalf("expected upgrade to plan-pro, got %q", got)
	}
}

func TestHandleEvent_CheckoutCompletedUnknownPlan(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	err := svc.HandleEvent(context.Background(), checkoutEvent(t, uuid.New(), "plan-missing"))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleEvent_StatusUpdateApplied(t *testing.T) {
	repo := newFakeRepo()
	accountID := uuid.New()
	repo.subs[accountID] = &models.Subscription{
		ID:                   uuid.New(),
		AccountID:            accountID,
		PlanID:               "plan-pro",
		StripeSubscriptionID: "sub_123",
		Status:               enums.SubscriptionStatusActive,
	}
	svc := newTestService(t, repo)

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, "sub_123", stripe.SubscriptionStatusPastDue)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := repo.subs[accountID].Status; got != enums.SubscriptionStatusPastDue {
		t.Fatalf("expected past_due, got %q", got)
	}
	// Status updates never touch the plan.
	if got := repo.subs[accountID].PlanID; got != "plan-pro" {
		t.Fatalf("plan must be untouched, got %q", got)
	}
}

func TestHandleEvent_StatusUpdateUnknownReferenceSucceeds(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, "sub_unknown", stripe.SubscriptionStatusPastDue)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown reference must not error: %v", err)
	}
}

func TestHandleEvent_CancellationResetsToDefaultPlan(t *testing.T) {
	repo := newFakeRepo()
	repo.addPlan(&models.Plan{ID: "plan-free", Name: "free", MonthlyLimit: 10})
	accountID := uuid.New()
	repo.subs[accountID] = &models.Subscription{
		ID:                   uuid.New(),
		AccountID:            accountID,
		PlanID:               "plan-pro",
		StripeSubscriptionID: "sub_123",
		Status:               enums.SubscriptionStatusActive,
	}
	svc := newTestService(t, repo)

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionDeleted, "sub_123", stripe.SubscriptionStatusCanceled)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	sub := repo.subs[accountID]
	if sub.Status != enums.SubscriptionStatusCancelled {
		t.Fatalf("expected cancelled, got %q", sub.Status)
	}
	if sub.PlanID != "plan-free" {
		t.Fatalf("expected reset to default plan, got %q", sub.PlanID)
	}

	// Redelivery repeats the same terminal write.
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if sub.Status != enums.SubscriptionStatusCancelled || sub.PlanID != "plan-free" {
		t.Fatalf("redelivery changed state: %+v", sub)
	}
}

func TestHandleEvent_CancellationMissingDefaultPlan(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionDeleted, "sub_123", stripe.SubscriptionStatusCanceled)
	err := svc.HandleEvent(context.Background(), event)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
		t.Fatalf("missing default plan must be fatal, got %v", err)
	}
}

func TestHandleEvent_UnknownEventTypeIgnored(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	event := &stripe.Event{
		ID:   "evt_1",
		Type: stripe.EventTypeInvoicePaymentSucceeded,
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unhandled event types are acknowledged: %v", err)
	}
}
