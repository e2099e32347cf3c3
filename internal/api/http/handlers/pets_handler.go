package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pet-adoption/internal/api/dto"
	"github.com/spec-kit/pet-adoption/internal/auth"
	"github.com/spec-kit/pet-adoption/internal/service"
	apperrors "github.com/spec-kit/pet-adoption/pkg/util"
)

const imageField = "image"

// PetsHandler serves the pet catalog.
type PetsHandler struct {
	pets *service.PetService
}

// NewPetsHandler constructs handler.
func NewPetsHandler(pets *service.PetService) *PetsHandler {
	return &PetsHandler{pets: pets}
}

// List handles GET /pets.
func (h *PetsHandler) List(c *fiber.Ctx) error {
	var q dto.PetListQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}

	page, err := h.pets.ListAvailable(c.UserContext(), service.PetListQuery{
		Species: q.Species,
		Breed:   q.Breed,
		Search:  q.Search,
		Page:    q.Page,
		Limit:   q.Limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewPetResponses(page.Items),
		"meta": dto.PageMeta{Page: page.Page, Limit: page.Limit, Total: page.Total},
	})
}

// Get handles GET /pets/:id.
func (h *PetsHandler) Get(c *fiber.Ctx) error {
	pet, err := h.pets.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPetResponse(pet)})
}

// Create handles POST /pets.
func (h *PetsHandler) Create(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	req, err := parsePetRequest(c)
	if err != nil {
		return err
	}
	image, closeImage, err := openImage(c)
	if err != nil {
		return err
	}
	defer closeImage()

	pet, err := h.pets.Create(c.UserContext(), principal.UserID, req.Fields(), image)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPetResponse(pet)})
}

// Update handles PUT /pets/:id.
func (h *PetsHandler) Update(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	req, err := parsePetRequest(c)
	if err != nil {
		return err
	}
	image, closeImage, err := openImage(c)
	if err != nil {
		return err
	}
	defer closeImage()

	pet, err := h.pets.Update(c.UserContext(), principal.UserID, c.Params("id"), req.Fields(), image)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPetResponse(pet)})
}

// Delete handles DELETE /pets/:id.
func (h *PetsHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.pets.Delete(c.UserContext(), principal.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// parsePetRequest binds a JSON or multipart body.
func parsePetRequest(c *fiber.Ctx) (dto.PetRequest, error) {
	var req dto.PetRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.ValidateRequest(req); err != nil {
		return req, err
	}
	return req, nil
}

// openImage returns the uploaded image, if any, and a func releasing it.
func openImage(c *fiber.Ctx) (*service.ImageUpload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, apperrors.NewValidationError("invalid multipart form", nil)
	}
	files := form.File[imageField]
	if len(files) == 0 {
		return nil, noop, nil
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, noop, apperrors.NewInternalError(err)
	}
	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	}, func() { _ = file.Close() }, nil
}
