package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/pet-adoption/internal/domain"
	"github.com/spec-kit/pet-adoption/internal/events"
	"github.com/spec-kit/pet-adoption/internal/repository"
	"github.com/spec-kit/pet-adoption/internal/storage"
	apperrors "github.com/spec-kit/pet-adoption/pkg/util"
)

// PetService coordinates the pet catalog.
type PetService struct {
	store         repository.Store
	images        storage.ImageStore
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	maxImageBytes int64
}

// PetDependencies bundles collaborators for the pet service.
type PetDependencies struct {
	Store         repository.Store
	Images        storage.ImageStore
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	MaxImageBytes int64
}

// ImageUpload is an optional image attached to a create or update.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PetListQuery describes a catalog listing request. Page is 1-indexed.
type PetListQuery struct {
	Species string
	Breed   string
	Search  string
	Page    int
	Limit   int
}

// PetPage is one page of available pets.
type PetPage struct {
	Items []domain.Pet
	Page  int
	Limit int
	Total int
}

// NewPetService builds the service.
func NewPetService(deps PetDependencies) *PetService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PetService{
		store:         deps.Store,
		images:        deps.Images,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		maxImageBytes: deps.MaxImageBytes,
	}
}

// ListAvailable returns AVAILABLE pets matching the query.
func (s *PetService) ListAvailable(ctx context.Context, q PetListQuery) (PetPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	status := domain.PetStatusAvailable
	filter := repository.PetFilter{
		Status:     &status,
		Species:    optionalString(q.Species),
		Breed:      optionalString(q.Breed),
		SearchTerm: optionalString(q.Search),
		Limit:      q.Limit,
	}
	filter.Normalize()
	filter.Offset = (q.Page - 1) * filter.Limit

	pets, total, err := s.store.Pets().List(ctx, filter)
	if err != nil {
		return PetPage{}, apperrors.NewInternalError(err)
	}
	return PetPage{Items: pets, Page: q.Page, Limit: filter.Limit, Total: total}, nil
}

// Get returns a pet by id. Malformed ids are reported as not found.
func (s *PetService) Get(ctx context.Context, id string) (*domain.Pet, error) {
	if !isUUID(id) {
		return nil, petNotFound(id)
	}
	pet, err := s.store.Pets().GetByID(ctx, id)
	if err != nil {
		return nil, mapPetErr(err, id)
	}
	return pet, nil
}

// Create adds an AVAILABLE pet to the catalog.
func (s *PetService) Create(ctx context.Context, adminID string, fields domain.PetFields, image *ImageUpload) (*domain.Pet, error) {
	fields = normalizeFields(fields)
	imageURL, err := s.storeImage(ctx, image)
	if err != nil {
		return nil, err
	}

	pet := &domain.Pet{Status: domain.PetStatusAvailable, ImageURL: imageURL}
	fields.Apply(pet)
	if err := s.store.Pets().Create(ctx, pet); err != nil {
		s.discardImage(ctx, imageURL)
		return nil, apperrors.NewInternalError(err)
	}

	s.publishPet(ctx, events.EventPetCreated, adminID, pet)
	return pet, nil
}

// Update replaces the editable fields of a pet. The image changes only when
// a new one is uploaded and the status is never modified.
func (s *PetService) Update(ctx context.Context, adminID, id string, fields domain.PetFields, image *ImageUpload) (*domain.Pet, error) {
	if !isUUID(id) {
		return nil, petNotFound(id)
	}
	if _, err := s.store.Pets().GetByID(ctx, id); err != nil {
		return nil, mapPetErr(err, id)
	}
	fields = normalizeFields(fields)
	imageURL, err := s.storeImage(ctx, image)
	if err != nil {
		return nil, err
	}

	var updated *domain.Pet
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		pet, err := tx.Pets().GetForUpdate(ctx, id)
		if err != nil {
			return mapPetErr(err, id)
		}
		fields.Apply(pet)
		if imageURL != nil {
			pet.ImageURL = imageURL
		}
		if err := tx.Pets().Update(ctx, pet); err != nil {
			return mapPetErr(err, id)
		}
		updated = pet
		return nil
	})
	if err != nil {
		s.discardImage(ctx, imageURL)
		return nil, err
	}

	s.publishPet(ctx, events.EventPetUpdated, adminID, updated)
	return updated, nil
}

// Delete removes a pet. Pets with an open application cannot be deleted.
func (s *PetService) Delete(ctx context.Context, adminID, id string) error {
	if !isUUID(id) {
		return petNotFound(id)
	}

	var deleted *domain.Pet
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		pet, err := tx.Pets().GetForUpdate(ctx, id)
		if err != nil {
			return mapPetErr(err, id)
		}
		pending, err := tx.Adoptions().CountPendingByPet(ctx, id)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if pending > 0 {
			return apperrors.NewConflict("pet has a pending adoption application", map[string]any{"pet_id": id})
		}
		if err := tx.Pets().Delete(ctx, id); err != nil {
			return mapPetErr(err, id)
		}
		deleted = pet
		return nil
	})
	if err != nil {
		return err
	}

	s.publishPet(ctx, events.EventPetDeleted, adminID, deleted)
	return nil
}

func (s *PetService) storeImage(ctx context.Context, image *ImageUpload) (*string, error) {
	if image == nil || image.Body == nil {
		return nil, nil
	}
	if !strings.HasPrefix(strings.ToLower(image.ContentType), "image/") {
		return nil, apperrors.NewValidationError("invalid image", map[string]any{"image": "must be an image"})
	}
	if s.maxImageBytes > 0 && image.Size > s.maxImageBytes {
		return nil, apperrors.NewValidationError("invalid image", map[string]any{
			"image": fmt.Sprintf("must not exceed %d bytes", s.maxImageBytes),
		})
	}
	if s.images == nil {
		return nil, apperrors.NewInternalError(errors.New("image store not configured"))
	}
	ref, err := s.images.Save(ctx, image.Filename, image.ContentType, image.Body)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &ref, nil
}

// discardImage removes an upload whose pet write did not commit.
func (s *PetService) discardImage(ctx context.Context, ref *string) {
	if ref == nil || s.images == nil {
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), *ref); err != nil {
		s.logger.Warn("orphaned pet image", zap.String("ref", *ref), zap.Error(err))
	}
}

func (s *PetService) publishPet(ctx context.Context, eventType events.EventType, adminID string, pet *domain.Pet) {
	if s.dispatcher == nil || pet == nil {
		return
	}
	event := events.NewEvent(eventType, events.Actor{UserID: adminID, Role: domain.RoleAdmin}, events.PetChangedPayload{
		Name:    pet.Name,
		Species: pet.Species,
		Breed:   pet.Breed,
		Status:  pet.Status,
	})
	event.PetID = pet.ID
	_ = s.dispatcher.Publish(ctx, event)
}

func normalizeFields(f domain.PetFields) domain.PetFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Species = strings.TrimSpace(f.Species)
	f.Breed = strings.TrimSpace(f.Breed)
	f.Description = strings.TrimSpace(f.Description)
	return f
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func petNotFound(id string) error {
	return apperrors.NewNotFound("pet", map[string]any{"id": id})
}

func mapPetErr(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return petNotFound(id)
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewInternalError(err)
}
