package constant

// Subscription metadata keys. Written only by the lifecycle service and the
// billing event reactor.
const (
	MetaLastBillingId        = "lastBillingId"
	MetaLastBillingDate      = "lastBillingDate"
	MetaLastBillingAmount    = "lastBillingAmount"
	MetaPaymentFailureCount  = "paymentFailureCount"
	MetaLastFailureReason    = "lastFailureReason"
	MetaLastFailureDate      = "lastFailureDate"
	MetaLastPaymentDate      = "lastPaymentDate"
	MetaLastPaymentAmount    = "lastPaymentAmount"
	MetaLastPaymentReference = "lastPaymentReference"
	MetaSuspendedAt          = "suspendedAt"
	MetaSuspensionReason     = "suspensionReason"
	MetaReactivatedAt        = "reactivatedAt"
	MetaReactivatedBy        = "reactivatedBy"
	MetaLastOverdueBillingId = "lastOverdueBillingId"
	MetaPreviousPlanId       = "previousPlanId"
	MetaDowngradePlanId      = "downgradePlanId"
)

// Billing metadata key guarding the failure counter against event redelivery.
const MetaLastFailureEventId = "lastFailureEventId"

const (
	SuspensionReasonPaymentFailures = "multiple_payment_failures"
	ReactivatedByPaymentEvent       = "billing_paid_event"
)

// Watermill topic carrying billing status events to the reactor.
const BillingEventsTopic = "billing-events"

// Billing status event types (internal pipeline).
const (
	EventBillingCreated = "BILLING_CREATED"
	EventBillingPaid    = "BILLING_PAID"
	EventBillingFailed  = "BILLING_FAILED"
	EventBillingOverdue = "BILLING_OVERDUE"
)

// Outward domain event types (NATS).
const (
	EventSubscriptionCreated     = "SUBSCRIPTION_CREATED"
	EventSubscriptionUpgraded    = "SUBSCRIPTION_UPGRADED"
	EventSubscriptionDowngraded  = "SUBSCRIPTION_DOWNGRADED"
	EventSubscriptionCancelled   = "SUBSCRIPTION_CANCELLED"
	EventSubscriptionSuspended   = "SUBSCRIPTION_SUSPENDED"
	EventSubscriptionReactivated = "SUBSCRIPTION_REACTIVATED"
)
