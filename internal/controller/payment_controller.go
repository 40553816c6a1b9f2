// FILE: internal/controller/payment_controller.go
package controller

import (
	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/pkg/serverutils"
	"plugin-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	Checkout(ctx *fiber.Ctx) error
	Webhook(ctx *fiber.Ctx) error
}

type paymentController struct {
	service service.IPaymentService
}

func NewPaymentController(service service.IPaymentService) IPaymentController {
	return &paymentController{service: service}
}

func (c *paymentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/payment")
	// the gateway calls this unauthenticated; the signature check gates it
	h.Post("/midtrans/notification", c.Webhook)
	h.Post("/checkout/:billingId", serverutils.JwtMiddleware, c.Checkout)
}

func (c *paymentController) Checkout(ctx *fiber.Ctx) error {
	billingId, err := uuid.Parse(ctx.Params("billingId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid billing id"))
	}

	res, err := c.service.Checkout(ctx.Context(), billingId)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout session created", res))
}

func (c *paymentController) Webhook(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid notification payload"))
	}

	if err := c.service.HandleNotification(ctx.Context(), &req); err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Notification processed", nil))
}
