package assistantHandler

import (
	"ShowroomGolang/internal/api/assistant"
	contextPkg "ShowroomGolang/pkg/context"
	"ShowroomGolang/pkg/handlerUtil"
	jwtPkg "ShowroomGolang/pkg/jwt"
	"ShowroomGolang/pkg/log"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *AssistantHandler) OpenSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "unauthorized")
	}

	session, err := h.assistantService.OpenSession(c, user)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "open_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, session)
	}
}

func (h *AssistantHandler) CloseSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "unauthorized")
	}

	if err := h.assistantService.CloseSession(c, user.ID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "close_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Assistant session closed",
		})
	}
}

func (h *AssistantHandler) TextCommand(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "unauthorized")
	}

	var req assistant.TextCommandRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing text command")

	result, err := h.assistantService.ProcessTextCommand(c, user.ID, req.Text)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "text_command")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *AssistantHandler) VoiceCommand(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 90*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "unauthorized")
	}

	audio, err := ctx.FormFile("audio")
	if err != nil {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("audio file is required"), ctx.Path())
	}

	result, err := h.assistantService.ProcessVoiceCommand(c, user.ID, audio)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "voice_command")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *AssistantHandler) StartListening(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "unauthorized")
	}

	if err := h.assistantService.StartListening(c, user.ID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_listening")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
		"listening": true,
	})
}

func (h *AssistantHandler) StopListening(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "unauthorized")
	}

	if err := h.assistantService.StopListening(c, user.ID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "stop_listening")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
		"listening": false,
	})
}

func (h *AssistantHandler) ChassisImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "unauthorized")
	}

	image, err := ctx.FormFile("image")
	if err != nil {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("image file is required"), ctx.Path())
	}

	result, err := h.assistantService.ProcessChassisImage(c, user.ID, image)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "chassis_image")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *AssistantHandler) Transcript(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "unauthorized")
	}

	transcript, err := h.assistantService.Transcript(c, user.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "transcript")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, transcript)
	}
}

func (h *AssistantHandler) State(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "unauthorized")
	}

	state, err := h.assistantService.State(c, user.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "state")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, state)
}

func (h *AssistantHandler) Stats(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "unauthorized")
	}

	stats, err := h.assistantService.Stats(c, user.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "stats")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, stats)
	}
}
