// FILE: internal/dto/payment_dto.go
package dto

import "github.com/google/uuid"

// CheckoutResponse carries the gateway session for a pending billing.
type CheckoutResponse struct {
	BillingId       uuid.UUID `json:"billing_id"`
	SnapToken       string    `json:"snap_token"`
	SnapRedirectUrl string    `json:"snap_redirect_url"`
}

// MidtransWebhookRequest mirrors the gateway notification payload.
// GrossAmount arrives as a string and must be coerced before comparison.
type MidtransWebhookRequest struct {
	OrderId           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	TransactionId     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	FraudStatus       string `json:"fraud_status"`
}
