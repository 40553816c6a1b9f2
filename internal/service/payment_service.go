// FILE: internal/service/payment_service.go
package service

import (
	"context"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"time"

	"plugin-billing-be/internal/config"
	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/entity"
	"plugin-billing-be/internal/pkg/apperrors"
	"plugin-billing-be/internal/pkg/logger"
	"plugin-billing-be/internal/repository/specification"
	"plugin-billing-be/internal/repository/unitofwork"
	"plugin-billing-be/pkg/billing"
	"plugin-billing-be/pkg/events"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

type IPaymentService interface {
	// Checkout opens a gateway payment session for a pending billing.
	Checkout(ctx context.Context, billingId uuid.UUID) (*dto.CheckoutResponse, error)
	// HandleNotification validates and translates a gateway webhook into
	// billing status events on the internal pipeline.
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
}

type paymentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	cfg              config.PaymentConfig
	log              logger.ILogger
}

func NewPaymentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	cfg config.PaymentConfig,
	log logger.ILogger,
) IPaymentService {
	return &paymentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		cfg:              cfg,
		log:              log,
	}
}

func (s *paymentService) Checkout(ctx context.Context, billingId uuid.UUID) (*dto.CheckoutResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	bill, err := uow.BillingRepository().FindOne(ctx, specification.ByID{ID: billingId})
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperrors.NewNotFound("billing", billingId.String())
	}
	if bill.Status != entity.BillingStatusPending && bill.Status != entity.BillingStatusOverdue {
		return nil, apperrors.NewValidation("billing %s is %s and cannot be paid", bill.Id, bill.Status)
	}

	var sClient snap.Client
	env := midtrans.Sandbox
	if s.cfg.MidtransIsProduction {
		env = midtrans.Production
	}
	sClient.New(s.cfg.MidtransServerKey, env)

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  bill.Id.String(),
			GrossAmt: int64(bill.Amount),
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: s.cfg.FinishRedirectURL,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    bill.SubscriptionId.String(),
				Price: int64(bill.Amount),
				Qty:   1,
				Name:  bill.Description,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := sClient.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, apperrors.NewPayment("failed to create gateway transaction", fmt.Errorf("%s", midErr.GetMessage()))
	}

	return &dto.CheckoutResponse{
		BillingId:       bill.Id,
		SnapToken:       snapResp.Token,
		SnapRedirectUrl: snapResp.RedirectURL,
	}, nil
}

func (s *paymentService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	if s.cfg.MidtransServerKey == "" {
		return apperrors.NewPayment("gateway server key not configured", nil)
	}

	// signature = SHA512(order_id + status_code + gross_amount + server_key)
	signatureInput := req.OrderId + req.StatusCode + req.GrossAmount + s.cfg.MidtransServerKey
	expectedSignature := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))
	if req.SignatureKey != expectedSignature {
		s.log.Warn("payment", "webhook signature mismatch", map[string]interface{}{"order_id": req.OrderId})
		return apperrors.NewValidation("invalid webhook signature")
	}

	billingId, err := uuid.Parse(req.OrderId)
	if err != nil {
		return apperrors.NewValidation("invalid order id: %s", req.OrderId)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	bill, err := uow.BillingRepository().FindOne(ctx, specification.ByID{ID: billingId})
	if err != nil {
		return err
	}
	if bill == nil {
		return apperrors.NewNotFound("billing", billingId.String())
	}

	// Gross amount arrives as a string; unguarded comparison against the
	// stored float corrupts reconciliation, so coerce first.
	grossAmount := billing.CoerceAmount(req.GrossAmount)
	if grossAmount != bill.Amount {
		s.log.Warn("payment", "webhook amount differs from billing", map[string]interface{}{
			"billing_id":   bill.Id.String(),
			"billed":       bill.Amount,
			"gross_amount": grossAmount,
		})
	}

	var evt events.BillingEvent
	switch req.TransactionStatus {
	case "capture", "settlement":
		evt = events.NewBillingPaid(bill.Id, bill.SubscriptionId, grossAmount, bill.Currency, req.TransactionId)
	case "deny", "cancel", "expire", "failure":
		evt = events.NewBillingFailed(bill.Id, bill.SubscriptionId, grossAmount, bill.Currency, req.TransactionStatus)
	case "pending":
		s.log.Info("payment", "webhook pending, no action", map[string]interface{}{"order_id": req.OrderId})
		return nil
	default:
		s.log.Warn("payment", "unknown transaction status", map[string]interface{}{"status": req.TransactionStatus})
		return nil
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		return apperrors.NewPayment("failed to enqueue billing event", err)
	}

	s.log.Info("payment", "webhook translated to billing event", map[string]interface{}{
		"order_id": req.OrderId,
		"type":     evt.Type,
		"at":       time.Now().Format(time.RFC3339),
	})
	return nil
}
