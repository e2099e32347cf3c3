package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pet-adoption/internal/api/dto"
	"github.com/spec-kit/pet-adoption/internal/auth"
	"github.com/spec-kit/pet-adoption/internal/service"
	apperrors "github.com/spec-kit/pet-adoption/pkg/util"
)

// AdoptionsHandler serves the adoption workflow.
type AdoptionsHandler struct {
	adoptions *service.AdoptionService
}

// NewAdoptionsHandler constructs handler.
func NewAdoptionsHandler(adoptions *service.AdoptionService) *AdoptionsHandler {
	return &AdoptionsHandler{adoptions: adoptions}
}

// Apply handles POST /adoptions/:petId.
func (h *AdoptionsHandler) Apply(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	adoption, err := h.adoptions.Apply(c.UserContext(), principal.UserID, c.Params("petId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdoptionResponse(adoption)})
}

// ListMine handles GET /adoptions/me.
func (h *AdoptionsHandler) ListMine(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	views, err := h.adoptions.ListMine(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdoptionViewResponses(views, false)})
}

// ListAll handles GET /adoptions.
func (h *AdoptionsHandler) ListAll(c *fiber.Ctx) error {
	views, err := h.adoptions.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdoptionViewResponses(views, true)})
}

// Decide handles PUT /adoptions/:id.
func (h *AdoptionsHandler) Decide(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.DecideAdoptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Normalize()
	if err := dto.ValidateRequest(req); err != nil {
		return err
	}

	adoption, err := h.adoptions.Decide(c.UserContext(), principal.UserID, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdoptionResponse(adoption)})
}
