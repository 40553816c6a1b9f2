// Package billing computes billing records for subscription transitions.
// Everything here is pure computation over inputs stamped with the injected
// clock; persistence and event publishing happen elsewhere.
package billing

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"plugin-billing-be/internal/entity"
)

const (
	// standard grace window for initial and renewal invoices
	defaultDueDays = 14
	// upgrades carry a shorter window: the plan swap is already live
	upgradeDueDays = 7
)

type Factory struct {
	now func() time.Time
}

func NewFactory() *Factory {
	return &Factory{now: time.Now}
}

// NewFactoryWithClock is used by tests and by replay tooling.
func NewFactoryWithClock(now func() time.Time) *Factory {
	return &Factory{now: now}
}

// CreateInitialBilling produces the first billing record for a new
// subscription. With a trial the billing date is pushed past the trial
// window; the amount applies the plan discount and the one-time setup fee.
func (f *Factory) CreateInitialBilling(
	subscriptionId uuid.UUID,
	plan *entity.SubscriptionPlan,
	hasTrial bool,
	tenantId uuid.UUID,
	organizationId *uuid.UUID,
) *entity.PluginBilling {
	now := f.now()

	billingDate := now
	if hasTrial {
		billingDate = now.AddDate(0, 0, plan.TrialDays)
	}

	amount, breakdown := f.CalculateBillingAmount(plan, true)

	return &entity.PluginBilling{
		Id:             uuid.New(),
		SubscriptionId: subscriptionId,
		TenantId:       tenantId,
		OrganizationId: organizationId,
		Amount:         amount,
		Currency:       plan.Currency,
		Status:         entity.BillingStatusPending,
		BillingDate:    billingDate,
		DueDate:        billingDate.AddDate(0, 0, defaultDueDays),
		PeriodStart:    billingDate,
		PeriodEnd:      PeriodEnd(billingDate, plan.BillingPeriod),
		Description:    fmt.Sprintf("Initial billing for plan %s", plan.Name),
		Metadata: map[string]interface{}{
			"type":      string(entity.BillingTypeInitial),
			"breakdown": breakdown,
		},
	}
}

// CreateForRenewal produces a renewal billing at the plan's base price.
// Discounts and setup fees are one-time promotional/onboarding charges and
// never apply to renewals.
func (f *Factory) CreateForRenewal(
	subscriptionId uuid.UUID,
	plan *entity.SubscriptionPlan,
	tenantId uuid.UUID,
	organizationId *uuid.UUID,
) *entity.PluginBilling {
	now := f.now()
	amount := coerceAmount(plan.Price)

	return &entity.PluginBilling{
		Id:             uuid.New(),
		SubscriptionId: subscriptionId,
		TenantId:       tenantId,
		OrganizationId: organizationId,
		Amount:         amount,
		Currency:       plan.Currency,
		Status:         entity.BillingStatusPending,
		BillingDate:    now,
		DueDate:        now.AddDate(0, 0, defaultDueDays),
		PeriodStart:    now,
		PeriodEnd:      PeriodEnd(now, plan.BillingPeriod),
		Description:    fmt.Sprintf("Renewal billing for plan %s", plan.Name),
		Metadata: map[string]interface{}{
			"type":      string(entity.BillingTypeRenewal),
			"basePrice": amount,
		},
	}
}

// CreateForUpgrade produces a billing record for a prorated plan upgrade.
// The caller supplies the prorated amount; the due window is shorter than
// for new/renewal billing.
func (f *Factory) CreateForUpgrade(
	subscriptionId uuid.UUID,
	proratedAmount float64,
	billingPeriod entity.BillingPeriod,
	currency string,
	tenantId uuid.UUID,
	organizationId *uuid.UUID,
) *entity.PluginBilling {
	now := f.now()

	return &entity.PluginBilling{
		Id:             uuid.New(),
		SubscriptionId: subscriptionId,
		TenantId:       tenantId,
		OrganizationId: organizationId,
		Amount:         coerceAmount(proratedAmount),
		Currency:       currency,
		Status:         entity.BillingStatusPending,
		BillingDate:    now,
		DueDate:        now.AddDate(0, 0, upgradeDueDays),
		PeriodStart:    now,
		PeriodEnd:      PeriodEnd(now, billingPeriod),
		Description:    "Prorated upgrade billing",
		Metadata: map[string]interface{}{
			"type":           string(entity.BillingTypeUpgrade),
			"proratedAmount": coerceAmount(proratedAmount),
		},
	}
}

// CalculateBillingAmount applies the one-time discount and optionally the
// setup fee to a plan's base price. Returns the total plus the price
// breakdown stored in billing metadata.
func (f *Factory) CalculateBillingAmount(plan *entity.SubscriptionPlan, includeSetupFee bool) (float64, map[string]interface{}) {
	basePrice := coerceAmount(plan.Price)
	discountPct := coerceAmount(plan.DiscountPercentage)

	discountAmount := basePrice * (discountPct / 100)
	effectivePrice := basePrice - discountAmount

	setupFee := 0.0
	if includeSetupFee {
		setupFee = coerceAmount(plan.SetupFee)
	}

	total := effectivePrice + setupFee

	return total, map[string]interface{}{
		"basePrice":      basePrice,
		"discountAmount": discountAmount,
		"effectivePrice": effectivePrice,
		"setupFee":       setupFee,
		"total":          total,
	}
}

// PeriodEnd computes the billing period end for a start date. ONE_TIME
// billings have no period end.
func PeriodEnd(start time.Time, period entity.BillingPeriod) *time.Time {
	var end time.Time
	switch period {
	case entity.BillingPeriodDaily:
		end = start.AddDate(0, 0, 1)
	case entity.BillingPeriodWeekly:
		end = start.AddDate(0, 0, 7)
	case entity.BillingPeriodMonthly:
		end = start.AddDate(0, 1, 0)
	case entity.BillingPeriodQuarterly:
		end = start.AddDate(0, 3, 0)
	case entity.BillingPeriodYearly:
		end = start.AddDate(1, 0, 0)
	case entity.BillingPeriodOneTime:
		return nil
	default:
		return nil
	}
	return &end
}

// coerceAmount guards monetary math against string-typed inputs. Decimal
// columns can surface as strings depending on driver scanning, and unguarded
// arithmetic on them corrupts amounts; everything funnels through here.
func coerceAmount(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// CoerceAmount is the exported form used by callers that accept raw
// gateway/webhook payloads.
func CoerceAmount(v interface{}) float64 {
	return coerceAmount(v)
}
