package controller

import (
	"strconv"

	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/pkg/serverutils"
	"career-counselor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	ListSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	ShowSession(ctx *fiber.Ctx) error
	RenameSession(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
	AddMessage(ctx *fiber.Ctx) error
	Generate(ctx *fiber.Ctx) error
	GenerateStub(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("sessions", c.ListSessions)
	h.Post("sessions", c.CreateSession)
	h.Get("sessions/:id", c.ShowSession)
	h.Put("sessions/:id", c.RenameSession)
	h.Get("sessions/:id/messages", c.ListMessages)
	h.Post("sessions/:id/messages", c.AddMessage)
	h.Post("sessions/:id/generate", c.Generate)
	h.Post("sessions/:id/generate-stub", c.GenerateStub)
}

func sessionIDParam(ctx *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return 0, serverutils.NewValidationError("invalid session id")
	}
	return uint(id), nil
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ListSessionsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return serverutils.NewValidationError("invalid query parameters")
	}

	res, err := c.chatService.ListSessions(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return serverutils.NewValidationError("invalid request body")
		}
	}

	res, err := c.chatService.CreateSession(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) ShowSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := sessionIDParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GetSession(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *chatController) RenameSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := sessionIDParam(ctx)
	if err != nil {
		return err
	}

	var req dto.RenameSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewValidationError("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.RenameSession(ctx.Context(), userId, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success rename session", res))
}

func (c *chatController) ListMessages(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := sessionIDParam(ctx)
	if err != nil {
		return err
	}

	var req dto.ListMessagesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return serverutils.NewValidationError("invalid query parameters")
	}

	res, err := c.chatService.ListMessages(ctx.Context(), userId, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list messages", res))
}

func (c *chatController) AddMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := sessionIDParam(ctx)
	if err != nil {
		return err
	}

	var req dto.AddMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewValidationError("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.AddMessage(ctx.Context(), userId, id, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success add message", res))
}

func (c *chatController) Generate(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := sessionIDParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GenerateAI(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate reply", res))
}

func (c *chatController) GenerateStub(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := sessionIDParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GenerateStubbedAI(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate stub reply", res))
}
