package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/pet-adoption/internal/domain"
	"github.com/spec-kit/pet-adoption/internal/events"
	"github.com/spec-kit/pet-adoption/internal/repository"
	apperrors "github.com/spec-kit/pet-adoption/pkg/util"
)

// AdoptionService drives the adoption state machine. Every transition
// updates the application and its pet in one transaction.
type AdoptionService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewAdoptionService builds the service.
func NewAdoptionService(store repository.Store, dispatcher events.Dispatcher) *AdoptionService {
	return &AdoptionService{store: store, dispatcher: dispatcher, now: time.Now}
}

// Apply files a PENDING application by userID for petID and moves the pet to PENDING.
func (s *AdoptionService) Apply(ctx context.Context, userID, petID string) (*domain.Adoption, error) {
	if !isUUID(petID) {
		return nil, petNotFound(petID)
	}

	var (
		created *domain.Adoption
		petName string
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		pet, err := tx.Pets().GetForUpdate(ctx, petID)
		if err != nil {
			return mapPetErr(err, petID)
		}

		// insert first so a repeat application by the same user reports a
		// conflict even though the pet is no longer AVAILABLE
		adoption := &domain.Adoption{UserID: userID, PetID: &pet.ID, Status: domain.AdoptionStatusPending}
		if err := tx.Adoptions().Create(ctx, adoption); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return apperrors.NewConflict("already applied", map[string]any{"pet_id": petID})
			case errors.Is(err, repository.ErrInvalidReference), errors.Is(err, repository.ErrNotFound):
				// token outlived its account
				return apperrors.NewUnauthorized("account no longer exists")
			}
			return apperrors.NewInternalError(err)
		}

		if pet.Status != domain.PetStatusAvailable {
			return apperrors.NewInvalidState("pet is not available for adoption", map[string]any{
				"pet_id": petID,
				"status": pet.Status,
			})
		}
		if err := tx.Pets().UpdateStatus(ctx, pet.ID, domain.PetStatusPending); err != nil {
			return mapPetErr(err, petID)
		}

		created = adoption
		petName = pet.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.NewEvent(events.EventAdoptionSubmitted,
		events.Actor{UserID: userID, Role: domain.RoleUser},
		events.AdoptionSubmittedPayload{PetName: petName})
	event.PetID = petID
	event.ApplicationID = created.ID
	s.publish(ctx, event)
	return created, nil
}

// Decide moves a PENDING application to APPROVED or REJECTED and sets the
// pet to ADOPTED or AVAILABLE accordingly. The pet row is locked before the
// application is written, matching the lock order of Apply.
func (s *AdoptionService) Decide(ctx context.Context, adminID, applicationID string, decision domain.AdoptionStatus) (*domain.Adoption, error) {
	if !isUUID(applicationID) {
		return nil, applicationNotFound(applicationID)
	}

	var decided *domain.Adoption
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		adoption, err := tx.Adoptions().GetForUpdate(ctx, applicationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return applicationNotFound(applicationID)
			}
			return apperrors.NewInternalError(err)
		}
		if adoption.Status != domain.AdoptionStatusPending {
			return apperrors.NewConflict("application already decided", map[string]any{
				"id":     applicationID,
				"status": adoption.Status,
			})
		}
		if !decision.IsDecision() {
			return apperrors.NewValidationError("invalid decision", map[string]any{
				"status": "must be APPROVED or REJECTED",
			})
		}

		if adoption.PetID != nil {
			if _, err := tx.Pets().GetForUpdate(ctx, *adoption.PetID); err != nil {
				return mapPetErr(err, *adoption.PetID)
			}
		}

		decidedAt := s.now().UTC()
		adoption.Status = decision
		adoption.DecidedAt = &decidedAt
		if err := tx.Adoptions().UpdateStatus(ctx, adoption); err != nil {
			return apperrors.NewInternalError(err)
		}

		if adoption.PetID != nil {
			if err := tx.Pets().UpdateStatus(ctx, *adoption.PetID, decision.ResultingPetStatus()); err != nil {
				return mapPetErr(err, *adoption.PetID)
			}
		}
		decided = adoption
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.NewEvent(events.EventAdoptionDecided,
		events.Actor{UserID: adminID, Role: domain.RoleAdmin},
		events.AdoptionDecidedPayload{
			Decision:     decided.Status,
			ApplicantID:  decided.UserID,
			NewPetStatus: decided.Status.ResultingPetStatus(),
		})
	event.ApplicationID = decided.ID
	if decided.PetID != nil {
		event.PetID = *decided.PetID
	}
	s.publish(ctx, event)
	return decided, nil
}

// ListMine returns the caller's applications, newest first.
func (s *AdoptionService) ListMine(ctx context.Context, userID string) ([]domain.AdoptionView, error) {
	views, err := s.store.Adoptions().ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return views, nil
}

// ListAll returns every application, newest first.
func (s *AdoptionService) ListAll(ctx context.Context) ([]domain.AdoptionView, error) {
	views, err := s.store.Adoptions().ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return views, nil
}

func (s *AdoptionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func applicationNotFound(id string) error {
	return apperrors.NewNotFound("adoption application", map[string]any{"id": id})
}
