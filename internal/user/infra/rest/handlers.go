package rest

import (
	"errors"

	"github.com/cristianortiz/eventauction/internal/user/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserHandler registers bidders so the bidder directory check can find them
type UserHandler struct {
	users domain.UserRepository
}

func NewUserHandler(users domain.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

type registerRequest struct {
	ID uuid.UUID `json:"id"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt string    `json:"created_at"`
}

func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	g := router.Group("/api/users")
	g.Post("/", h.register)
	g.Get("/:id", h.get)
}

func (h *UserHandler) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	user, err := h.users.Register(c.UserContext(), req.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toResponse(user))
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	user, err := h.users.GetByID(c.UserContext(), id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(toResponse(user))
}

func toResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, CreatedAt: u.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000Z07:00")}
}
