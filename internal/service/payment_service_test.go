// FILE: internal/service/payment_service_test.go
package service

import (
	"context"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"plugin-billing-be/internal/config"
	"plugin-billing-be/internal/constant"
	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/pkg/apperrors"
	"plugin-billing-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerKey = "test-server-key"

func signWebhook(req *dto.MidtransWebhookRequest) {
	input := req.OrderId + req.StatusCode + req.GrossAmount + testServerKey
	req.SignatureKey = fmt.Sprintf("%x", sha512.Sum512([]byte(input)))
}

func newTestPaymentService(f *fakeFactory) (IPaymentService, *noopPublisher) {
	pub := &noopPublisher{}
	svc := NewPaymentService(f, pub, config.PaymentConfig{MidtransServerKey: testServerKey}, noopLogger{})
	return svc, pub
}

func seedPendingBilling(f *fakeFactory, amount float64) *entity.PluginBilling {
	now := time.Now()
	bill := &entity.PluginBilling{
		Id:             uuid.New(),
		SubscriptionId: uuid.New(),
		TenantId:       uuid.New(),
		Amount:         amount,
		Currency:       "USD",
		Status:         entity.BillingStatusPending,
		BillingDate:    now,
		DueDate:        now.AddDate(0, 0, 14),
		PeriodStart:    now,
	}
	f.store.billings[bill.Id] = bill
	return bill
}

func TestHandleNotification_SettlementPublishesPaid(t *testing.T) {
	f := newFakeFactory()
	svc, pub := newTestPaymentService(f)
	bill := seedPendingBilling(f, 99.9)

	req := &dto.MidtransWebhookRequest{
		OrderId:           bill.Id.String(),
		TransactionStatus: "settlement",
		TransactionId:     "trx-abc",
		StatusCode:        "200",
		GrossAmount:       "99.90",
	}
	signWebhook(req)

	require.NoError(t, svc.HandleNotification(context.Background(), req))
	require.Equal(t, 1, pub.count())

	var evt events.BillingEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &evt))
	assert.Equal(t, constant.EventBillingPaid, evt.Type)
	assert.Equal(t, bill.Id, evt.BillingId)
	assert.Equal(t, bill.SubscriptionId, evt.SubscriptionId)
	assert.Equal(t, "trx-abc", evt.Reference)
	// the string gross amount is coerced, not string-compared
	assert.InDelta(t, 99.9, evt.Amount, 0.001)
	assert.NotEmpty(t, evt.EventId)
}

func TestHandleNotification_DenyPublishesFailed(t *testing.T) {
	f := newFakeFactory()
	svc, pub := newTestPaymentService(f)
	bill := seedPendingBilling(f, 100)

	req := &dto.MidtransWebhookRequest{
		OrderId:           bill.Id.String(),
		TransactionStatus: "deny",
		StatusCode:        "202",
		GrossAmount:       "100.00",
	}
	signWebhook(req)

	require.NoError(t, svc.HandleNotification(context.Background(), req))
	require.Equal(t, 1, pub.count())

	var evt events.BillingEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &evt))
	assert.Equal(t, constant.EventBillingFailed, evt.Type)
	assert.Equal(t, "deny", evt.FailureReason)
}

func TestHandleNotification_InvalidSignature(t *testing.T) {
	f := newFakeFactory()
	svc, pub := newTestPaymentService(f)
	bill := seedPendingBilling(f, 100)

	req := &dto.MidtransWebhookRequest{
		OrderId:           bill.Id.String(),
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "100.00",
		SignatureKey:      "forged",
	}

	err := svc.HandleNotification(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 0, pub.count())
}

func TestHandleNotification_PendingIsNoop(t *testing.T) {
	f := newFakeFactory()
	svc, pub := newTestPaymentService(f)
	bill := seedPendingBilling(f, 100)

	req := &dto.MidtransWebhookRequest{
		OrderId:           bill.Id.String(),
		TransactionStatus: "pending",
		StatusCode:        "201",
		GrossAmount:       "100.00",
	}
	signWebhook(req)

	require.NoError(t, svc.HandleNotification(context.Background(), req))
	assert.Equal(t, 0, pub.count())
}

func TestHandleNotification_UnknownBilling(t *testing.T) {
	f := newFakeFactory()
	svc, _ := newTestPaymentService(f)

	req := &dto.MidtransWebhookRequest{
		OrderId:           uuid.NewString(),
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "100.00",
	}
	signWebhook(req)

	err := svc.HandleNotification(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHandleNotification_BadOrderId(t *testing.T) {
	f := newFakeFactory()
	svc, _ := newTestPaymentService(f)

	req := &dto.MidtransWebhookRequest{
		OrderId:           "not-a-uuid",
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "100.00",
	}
	signWebhook(req)

	err := svc.HandleNotification(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
