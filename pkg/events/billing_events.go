package events

import (
	"time"

	"github.com/google/uuid"
)

// BillingEvent is the payload carried on the internal billing pipeline.
// EventId identifies one delivery attempt family for redelivery dedupe.
type BillingEvent struct {
	EventId        string                 `json:"event_id"`
	Type           string                 `json:"type"`
	BillingId      uuid.UUID              `json:"billing_id"`
	SubscriptionId uuid.UUID              `json:"subscription_id"`
	Amount         float64                `json:"amount"`
	Currency       string                 `json:"currency"`
	Reference      string                 `json:"reference,omitempty"`
	FailureReason  string                 `json:"failure_reason,omitempty"`
	Extra          map[string]interface{} `json:"extra,omitempty"`
	OccurredAt     time.Time              `json:"occurred_at"`
}

func newBillingEvent(eventType string, billingId, subscriptionId uuid.UUID, amount float64, currency string) BillingEvent {
	return BillingEvent{
		EventId:        uuid.NewString(),
		Type:           eventType,
		BillingId:      billingId,
		SubscriptionId: subscriptionId,
		Amount:         amount,
		Currency:       currency,
		OccurredAt:     time.Now(),
	}
}

func NewBillingCreated(billingId, subscriptionId uuid.UUID, amount float64, currency string) BillingEvent {
	return newBillingEvent("BILLING_CREATED", billingId, subscriptionId, amount, currency)
}

func NewBillingPaid(billingId, subscriptionId uuid.UUID, amount float64, currency, reference string) BillingEvent {
	e := newBillingEvent("BILLING_PAID", billingId, subscriptionId, amount, currency)
	e.Reference = reference
	return e
}

func NewBillingFailed(billingId, subscriptionId uuid.UUID, amount float64, currency, reason string) BillingEvent {
	e := newBillingEvent("BILLING_FAILED", billingId, subscriptionId, amount, currency)
	e.FailureReason = reason
	return e
}

func NewBillingOverdue(billingId, subscriptionId uuid.UUID, amount float64, currency string) BillingEvent {
	return newBillingEvent("BILLING_OVERDUE", billingId, subscriptionId, amount, currency)
}
