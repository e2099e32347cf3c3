package dto

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/pet-adoption/internal/domain"
)

// DecideAdoptionRequest carries an admin decision.
type DecideAdoptionRequest struct {
	Status domain.AdoptionStatus `json:"status"`
}

// Normalize upper-cases the decision.
func (r *DecideAdoptionRequest) Normalize() {
	r.Status = domain.AdoptionStatus(strings.ToUpper(strings.TrimSpace(string(r.Status))))
}

// Validate checks the decision payload.
func (r DecideAdoptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required),
	)
}

// AdoptionResponse is the view of an application after a transition.
type AdoptionResponse struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	PetID     *string               `json:"pet_id"`
	Status    domain.AdoptionStatus `json:"status"`
	AppliedAt time.Time             `json:"applied_at"`
	DecidedAt *time.Time            `json:"decided_at"`
}

// NewAdoptionResponse maps an application.
func NewAdoptionResponse(a *domain.Adoption) AdoptionResponse {
	return AdoptionResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		PetID:     a.PetID,
		Status:    a.Status,
		AppliedAt: a.AppliedAt,
		DecidedAt: a.DecidedAt,
	}
}

// ApplicantSummary identifies the applicant in admin listings.
type ApplicantSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PetSummary identifies the pet in application listings.
type PetSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
}

// AdoptionViewResponse is an application joined with applicant and pet.
// Pet is null once the pet has been deleted; User is omitted from the
// caller's own listing.
type AdoptionViewResponse struct {
	ID        string                `json:"id"`
	Status    domain.AdoptionStatus `json:"status"`
	AppliedAt time.Time             `json:"applied_at"`
	DecidedAt *time.Time            `json:"decided_at"`
	User      *ApplicantSummary     `json:"user,omitempty"`
	Pet       *PetSummary           `json:"pet"`
}

// NewAdoptionViewResponses maps listing rows. withUser includes the applicant.
func NewAdoptionViewResponses(views []domain.AdoptionView, withUser bool) []AdoptionViewResponse {
	out := make([]AdoptionViewResponse, 0, len(views))
	for _, v := range views {
		item := AdoptionViewResponse{
			ID:        v.ID,
			Status:    v.Status,
			AppliedAt: v.AppliedAt,
			DecidedAt: v.DecidedAt,
		}
		if withUser {
			item.User = &ApplicantSummary{ID: v.UserID, Name: v.UserName, Email: v.UserEmail}
		}
		if v.PetID != nil {
			item.Pet = &PetSummary{ID: *v.PetID, Name: v.PetName, Species: v.PetSpecies, Breed: v.PetBreed}
		}
		out = append(out, item)
	}
	return out
}
