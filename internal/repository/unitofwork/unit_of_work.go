package unitofwork

import (
	"context"

	"plugin-billing-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PluginRepository() contract.PluginRepository
	SubscriptionRepository() contract.SubscriptionRepository
	BillingRepository() contract.BillingRepository
}
