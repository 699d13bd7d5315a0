package inventoryHandler

import (
	"ShowroomGolang/internal/api/inventory"
	contextPkg "ShowroomGolang/pkg/context"
	"ShowroomGolang/pkg/handlerUtil"
	"ShowroomGolang/pkg/log"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *InventoryHandler) ListVehicles(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing list vehicles request")

	vehicles, err := h.inventoryService.ListVehicles(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_vehicles")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, inventory.VehicleListResponse{
			Vehicles: vehicles,
			Total:    len(vehicles),
		})
	}
}

func (h *InventoryHandler) CreateVehicle(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req inventory.CreateVehicleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	vehicle, err := h.inventoryService.CreateVehicle(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_vehicle")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, vehicle)
	}
}

func (h *InventoryHandler) UpdateVehicleStatus(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	id := ctx.Params("id")
	if id == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("vehicle id is required"), ctx.Path())
	}

	var req inventory.UpdateStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.inventoryService.UpdateVehicleStatus(c, id, req.Status); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_vehicle_status")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Vehicle status updated successfully",
		})
	}
}

func (h *InventoryHandler) DeleteVehicle(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	id := ctx.Params("id")
	if id == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("vehicle id is required"), ctx.Path())
	}

	if err := h.inventoryService.DeleteVehicle(c, id); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_vehicle")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Vehicle deleted successfully",
		})
	}
}
