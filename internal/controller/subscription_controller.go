// FILE: internal/controller/subscription_controller.go
package controller

import (
	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/pkg/serverutils"
	"plugin-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISubscriptionController interface {
	RegisterRoutes(r fiber.Router)
	Purchase(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Upgrade(ctx *fiber.Ctx) error
	Downgrade(ctx *fiber.Ctx) error
	ExtendTrial(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Renew(ctx *fiber.Ctx) error
	BillingHistory(ctx *fiber.Ctx) error
}

type subscriptionController struct {
	service service.ISubscriptionService
}

func NewSubscriptionController(service service.ISubscriptionService) ISubscriptionController {
	return &subscriptionController{service: service}
}

func (c *subscriptionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/subscriptions", serverutils.JwtMiddleware)
	h.Post("/", c.Purchase)
	h.Get("/:id", c.Get)
	h.Post("/:id/upgrade", c.Upgrade)
	h.Post("/:id/downgrade", c.Downgrade)
	h.Post("/:id/extend-trial", c.ExtendTrial)
	h.Post("/:id/cancel", c.Cancel)
	h.Post("/:id/renew", c.Renew)
	h.Get("/:id/billings", c.BillingHistory)
}

func (c *subscriptionController) Purchase(ctx *fiber.Ctx) error {
	var req dto.PurchaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid request body"))
	}

	res, err := c.service.Purchase(ctx.Context(), &req)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Subscription created", res))
}

func (c *subscriptionController) Get(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid subscription id"))
	}

	res, err := c.service.GetSubscription(ctx.Context(), id)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching subscription", res))
}

func (c *subscriptionController) Upgrade(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid subscription id"))
	}

	var req dto.UpgradeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid request body"))
	}

	res, err := c.service.Upgrade(ctx.Context(), id, &req)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription upgraded", res))
}

func (c *subscriptionController) Downgrade(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid subscription id"))
	}

	var req dto.DowngradeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid request body"))
	}

	res, err := c.service.Downgrade(ctx.Context(), id, &req)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Downgrade scheduled for period end", res))
}

func (c *subscriptionController) ExtendTrial(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid subscription id"))
	}

	var req dto.ExtendTrialRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid request body"))
	}

	res, err := c.service.ExtendTrial(ctx.Context(), id, &req)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Trial extended", res))
}

func (c *subscriptionController) Cancel(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid subscription id"))
	}

	var req dto.CancelRequest
	if err := ctx.BodyParser(&req); err != nil && len(ctx.Body()) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid request body"))
	}

	res, err := c.service.Cancel(ctx.Context(), id, &req)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription cancelled", res))
}

func (c *subscriptionController) Renew(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid subscription id"))
	}

	res, err := c.service.Renew(ctx.Context(), id)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Renewal billing created", res))
}

func (c *subscriptionController) BillingHistory(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid subscription id"))
	}

	res, err := c.service.GetBillingHistory(ctx.Context(), id)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching billing history", res))
}
