// FILE: internal/service/fakes_test.go
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/pkg/apperrors"
	"plugin-billing-be/internal/repository/contract"
	"plugin-billing-be/internal/repository/specification"
	"plugin-billing-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// fakeStore is a shared in-memory backing store so every unit of work from
// one factory observes the same data, like repositories over one database.
type fakeStore struct {
	mu            sync.Mutex
	plugins       map[uuid.UUID]*entity.Plugin
	plans         map[uuid.UUID]*entity.SubscriptionPlan
	subscriptions map[uuid.UUID]*entity.PluginSubscription
	billings      map[uuid.UUID]*entity.PluginBilling
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plugins:       make(map[uuid.UUID]*entity.Plugin),
		plans:         make(map[uuid.UUID]*entity.SubscriptionPlan),
		subscriptions: make(map[uuid.UUID]*entity.PluginSubscription),
		billings:      make(map[uuid.UUID]*entity.PluginBilling),
	}
}

type fakeFactory struct {
	store *fakeStore
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{store: newFakeStore()}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) PluginRepository() contract.PluginRepository {
	return &fakePluginRepo{store: u.store}
}

func (u *fakeUow) SubscriptionRepository() contract.SubscriptionRepository {
	return &fakeSubscriptionRepo{store: u.store}
}

func (u *fakeUow) BillingRepository() contract.BillingRepository {
	return &fakeBillingRepo{store: u.store}
}

// --- spec matching ---
//
// The fakes interpret the concrete specification types instead of SQL.
// Ordering and pagination specs are ignored; tests that care about order
// sort explicitly.

func matchSubscription(s *entity.PluginSubscription, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if s.Id != sp.ID {
				return false
			}
		case specification.ByPluginID:
			if s.PluginId != sp.PluginID {
				return false
			}
		case specification.ByTenantID:
			if s.TenantId != sp.TenantID {
				return false
			}
		case specification.ByScope:
			if s.Scope != sp.Scope {
				return false
			}
		case specification.BySubscriberID:
			if s.SubscriberId == nil || *s.SubscriberId != sp.SubscriberID {
				return false
			}
		case specification.ByOrganizationID:
			if s.OrganizationId == nil || *s.OrganizationId != sp.OrganizationID {
				return false
			}
		case specification.SubscriptionActive:
			if s.Status != entity.SubscriptionStatusActive && s.Status != entity.SubscriptionStatusTrial {
				return false
			}
			if s.EndDate != nil && !s.EndDate.After(sp.Now) {
				return false
			}
		case specification.RenewalDue:
			if !s.AutoRenew || s.Status != entity.SubscriptionStatusActive {
				return false
			}
			if s.EndDate == nil || s.EndDate.After(sp.Now) {
				return false
			}
		case specification.FilterBy:
			if sp.Field == "plan_id" {
				if id, ok := sp.Value.(uuid.UUID); ok && s.PlanId != id {
					return false
				}
			}
		}
	}
	return true
}

func matchBilling(b *entity.PluginBilling, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if b.Id != sp.ID {
				return false
			}
		case specification.BySubscriptionID:
			if b.SubscriptionId != sp.SubscriptionID {
				return false
			}
		case specification.BillingPastDue:
			if b.Status != entity.BillingStatusPending || !b.DueDate.Before(sp.Now) {
				return false
			}
		}
	}
	return true
}

// --- plugin repo ---

type fakePluginRepo struct {
	store *fakeStore
}

func (r *fakePluginRepo) Create(ctx context.Context, p *entity.Plugin) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *p
	r.store.plugins[p.Id] = &cp
	return nil
}

func (r *fakePluginRepo) Update(ctx context.Context, p *entity.Plugin) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *p
	r.store.plugins[p.Id] = &cp
	return nil
}

func (r *fakePluginRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.plugins, id)
	return nil
}

func (r *fakePluginRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Plugin, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.plugins {
		match := true
		for _, spec := range specs {
			if byId, ok := spec.(specification.ByID); ok && p.Id != byId.ID {
				match = false
			}
		}
		if match {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePluginRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Plugin, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Plugin
	for _, p := range r.store.plugins {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePluginRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.plugins)), nil
}

func (r *fakePluginRepo) CreateVersion(ctx context.Context, v *entity.PluginVersion) error {
	return nil
}

func (r *fakePluginRepo) FindVersions(ctx context.Context, pluginId uuid.UUID) ([]*entity.PluginVersion, error) {
	return nil, nil
}

// --- subscription repo ---

type fakeSubscriptionRepo struct {
	store *fakeStore
}

func (r *fakeSubscriptionRepo) CreatePlan(ctx context.Context, p *entity.SubscriptionPlan) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *p
	r.store.plans[p.Id] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) UpdatePlan(ctx context.Context, p *entity.SubscriptionPlan) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *p
	r.store.plans[p.Id] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) DeletePlan(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.plans, id)
	return nil
}

func (r *fakeSubscriptionRepo) FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.SubscriptionPlan, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.plans {
		match := true
		for _, spec := range specs {
			switch sp := spec.(type) {
			case specification.ByID:
				if p.Id != sp.ID {
					match = false
				}
			case specification.ByPluginID:
				if p.PluginId != sp.PluginID {
					match = false
				}
			}
		}
		if match {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionPlan, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.SubscriptionPlan
	for _, p := range r.store.plans {
		match := true
		for _, spec := range specs {
			if byPlugin, ok := spec.(specification.ByPluginID); ok && p.PluginId != byPlugin.PluginID {
				match = false
			}
		}
		if match {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *fakeSubscriptionRepo) CreateSubscription(ctx context.Context, s *entity.PluginSubscription) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := copySubscription(s)
	r.store.subscriptions[s.Id] = cp
	return nil
}

func (r *fakeSubscriptionRepo) UpdateSubscription(ctx context.Context, s *entity.PluginSubscription) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.subscriptions[s.Id]
	if !ok {
		return apperrors.NewNotFound("subscription", s.Id.String())
	}
	if current.LockVersion != s.LockVersion {
		return apperrors.ErrStaleUpdate
	}
	cp := copySubscription(s)
	cp.LockVersion++
	r.store.subscriptions[s.Id] = cp
	s.LockVersion = cp.LockVersion
	return nil
}

func (r *fakeSubscriptionRepo) FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.PluginSubscription, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.subscriptions {
		if matchSubscription(s, specs) {
			return copySubscription(s), nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) FindAllSubscriptions(ctx context.Context, specs ...specification.Specification) ([]*entity.PluginSubscription, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.PluginSubscription
	for _, s := range r.store.subscriptions {
		if matchSubscription(s, specs) {
			out = append(out, copySubscription(s))
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) CountSubscriptions(ctx context.Context, specs ...specification.Specification) (int64, error) {
	subs, _ := r.FindAllSubscriptions(ctx, specs...)
	return int64(len(subs)), nil
}

// --- billing repo ---

type fakeBillingRepo struct {
	store *fakeStore
}

func (r *fakeBillingRepo) Create(ctx context.Context, b *entity.PluginBilling) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := copyBilling(b)
	r.store.billings[b.Id] = cp
	return nil
}

func (r *fakeBillingRepo) Update(ctx context.Context, b *entity.PluginBilling) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.billings[b.Id]
	if !ok {
		return apperrors.NewNotFound("billing", b.Id.String())
	}
	if current.Status == entity.BillingStatusPaid {
		return apperrors.NewValidation("billing %s is paid and immutable", b.Id)
	}
	r.store.billings[b.Id] = copyBilling(b)
	return nil
}

func (r *fakeBillingRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PluginBilling, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.billings {
		if matchBilling(b, specs) {
			return copyBilling(b), nil
		}
	}
	return nil, nil
}

func (r *fakeBillingRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PluginBilling, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.PluginBilling
	for _, b := range r.store.billings {
		if matchBilling(b, specs) {
			out = append(out, copyBilling(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BillingDate.After(out[j].BillingDate) })
	return out, nil
}

func (r *fakeBillingRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	bills, _ := r.FindAll(ctx, specs...)
	return int64(len(bills)), nil
}

// --- helpers ---

func copySubscription(s *entity.PluginSubscription) *entity.PluginSubscription {
	cp := *s
	if s.Metadata != nil {
		cp.Metadata = make(map[string]interface{}, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func copyBilling(b *entity.PluginBilling) *entity.PluginBilling {
	cp := *b
	if b.Metadata != nil {
		cp.Metadata = make(map[string]interface{}, len(b.Metadata))
		for k, v := range b.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// --- seed helpers ---

func seedPlugin(store *fakeStore, tenantId uuid.UUID, hasPlan bool) *entity.Plugin {
	p := &entity.Plugin{
		Id:       uuid.New(),
		TenantId: tenantId,
		Name:     "Test Plugin",
		Slug:     "test-plugin",
		Status:   entity.PluginStatusActive,
		HasPlan:  hasPlan,
	}
	store.plugins[p.Id] = p
	return p
}

func seedPlan(store *fakeStore, pluginId uuid.UUID, price, discount, setupFee float64, period entity.BillingPeriod, trialDays int) *entity.SubscriptionPlan {
	p := &entity.SubscriptionPlan{
		Id:            uuid.New(),
		PluginId:      pluginId,
		Name:          "Pro",
		Price:         price,
		Currency:      "USD",
		BillingPeriod: period,
		TrialDays:     trialDays,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	p.DiscountPercentage = discount
	p.SetupFee = setupFee
	store.plans[p.Id] = p
	return p
}

type noopPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *noopPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *noopPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }
