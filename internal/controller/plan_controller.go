// FILE: internal/controller/plan_controller.go
package controller

import (
	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/pkg/serverutils"
	"plugin-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPlanController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	OrderSummary(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type planController struct {
	service service.IPlanService
}

func NewPlanController(service service.IPlanService) IPlanController {
	return &planController{service: service}
}

func (c *planController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/plans")
	h.Get("/plugin/:pluginId", c.List)
	h.Get("/:id/summary", c.OrderSummary)

	// Mutations require auth
	h.Post("/", serverutils.JwtMiddleware, c.Create)
	h.Put("/:id", serverutils.JwtMiddleware, c.Update)
	h.Delete("/:id", serverutils.JwtMiddleware, c.Delete)
}

func (c *planController) List(ctx *fiber.Ctx) error {
	pluginId, err := uuid.Parse(ctx.Params("pluginId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid plugin id"))
	}

	res, err := c.service.GetPlans(ctx.Context(), pluginId)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching plans", res))
}

func (c *planController) OrderSummary(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid plan id"))
	}

	res, err := c.service.GetOrderSummary(ctx.Context(), id)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching order summary", res))
}

func (c *planController) Create(ctx *fiber.Ctx) error {
	var req dto.CreatePlanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid request body"))
	}

	res, err := c.service.CreatePlan(ctx.Context(), &req)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Plan created", res))
}

func (c *planController) Update(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid plan id"))
	}

	var req dto.UpdatePlanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid request body"))
	}

	res, err := c.service.UpdatePlan(ctx.Context(), id, &req)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Plan updated", res))
}

func (c *planController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid plan id"))
	}

	if err := c.service.DeletePlan(ctx.Context(), id); err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Plan deleted", nil))
}
