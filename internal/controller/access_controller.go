// FILE: internal/controller/access_controller.go
package controller

import (
	"plugin-billing-be/internal/dto"
	"plugin-billing-be/internal/pkg/serverutils"
	"plugin-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAccessController interface {
	RegisterRoutes(r fiber.Router)
	Check(ctx *fiber.Ctx) error
}

type accessController struct {
	service service.IAccessService
}

func NewAccessController(service service.IAccessService) IAccessController {
	return &accessController{service: service}
}

func (c *accessController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/access", serverutils.JwtMiddleware)
	h.Post("/check", c.Check)
}

// Check always answers 200 for an evaluated request: a denial is data for
// the caller, not an HTTP failure.
func (c *accessController) Check(ctx *fiber.Ctx) error {
	var req dto.AccessCheckRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid request body"))
	}

	res, err := c.service.CheckAccess(ctx.Context(), &req)
	if err != nil {
		return serverutils.WriteError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Access evaluated", res))
}
