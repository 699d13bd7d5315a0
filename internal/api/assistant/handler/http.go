package assistantHandler

import (
	assistantService "ShowroomGolang/internal/api/assistant/service"
	"ShowroomGolang/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type AssistantHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	assistantService assistantService.IAssistantService
	hub              *Hub
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	as assistantService.IAssistantService,
	hub *Hub,
) *AssistantHandler {
	return &AssistantHandler{
		log:              log,
		validator:        validate,
		middleware:       middleware,
		assistantService: as,
		hub:              hub,
	}
}

func (h *AssistantHandler) Start(srv fiber.Router) {
	assistant := srv.Group("/assistant")

	assistant.Use(h.middleware.NewRateLimiter)
	assistant.Use(h.middleware.NewTokenMiddleware)

	assistant.Post("/session", h.OpenSession)
	assistant.Delete("/session", h.CloseSession)

	assistant.Post("/command", h.TextCommand)
	assistant.Post("/voice", h.VoiceCommand)
	assistant.Post("/voice/start", h.StartListening)
	assistant.Post("/voice/stop", h.StopListening)
	assistant.Post("/chassis-image", h.ChassisImage)

	assistant.Get("/transcript", h.Transcript)
	assistant.Get("/stats", h.Stats)
	assistant.Get("/state", h.State)

	assistant.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	assistant.Get("/ws", websocket.New(h.ServeWS))
}
