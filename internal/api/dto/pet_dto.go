package dto

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/pet-adoption/internal/domain"
)

// PetRequest is the create and update payload. Any status field sent by the
// client is not bound.
type PetRequest struct {
	Name        string `json:"name" form:"name"`
	Species     string `json:"species" form:"species"`
	Breed       string `json:"breed" form:"breed"`
	Age         int    `json:"age" form:"age"`
	Description string `json:"description" form:"description"`
}

// Validate checks the pet payload.
func (r PetRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Species = strings.TrimSpace(r.Species)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Species, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Breed, validation.Length(0, 100)),
		validation.Field(&r.Age, validation.Min(0), validation.Max(100)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

// Fields converts the request into domain fields.
func (r PetRequest) Fields() domain.PetFields {
	return domain.PetFields{
		Name:        r.Name,
		Species:     r.Species,
		Breed:       r.Breed,
		Age:         r.Age,
		Description: r.Description,
	}
}

// PetListQuery captures catalog query parameters.
type PetListQuery struct {
	Species string `query:"species"`
	Breed   string `query:"breed"`
	Search  string `query:"search"`
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
}

// PetResponse is the public view of a pet.
type PetResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Species     string           `json:"species"`
	Breed       string           `json:"breed"`
	Age         int              `json:"age"`
	Description string           `json:"description"`
	ImageURL    *string          `json:"image_url"`
	Status      domain.PetStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewPetResponse maps a pet.
func NewPetResponse(p *domain.Pet) PetResponse {
	return PetResponse{
		ID:          p.ID,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Age:         p.Age,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// NewPetResponses maps a slice of pets.
func NewPetResponses(pets []domain.Pet) []PetResponse {
	out := make([]PetResponse, 0, len(pets))
	for i := range pets {
		out = append(out, NewPetResponse(&pets[i]))
	}
	return out
}

// PageMeta describes a paginated listing.
type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}
