package inventoryHandler

import (
	inventoryService "ShowroomGolang/internal/api/inventory/service"
	"ShowroomGolang/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type InventoryHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	inventoryService inventoryService.IInventoryService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	is inventoryService.IInventoryService,
) *InventoryHandler {
	return &InventoryHandler{
		log:              log,
		validator:        validate,
		middleware:       middleware,
		inventoryService: is,
	}
}

func (h *InventoryHandler) Start(srv fiber.Router) {
	inventory := srv.Group("/inventory")

	inventory.Use(h.middleware.NewTokenMiddleware)

	inventory.Get("/vehicles", h.ListVehicles)
	inventory.Post("/vehicles", h.CreateVehicle)
	inventory.Put("/vehicles/:id/status", h.UpdateVehicleStatus)
	inventory.Delete("/vehicles/:id", h.DeleteVehicle)
}
