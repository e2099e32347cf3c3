// Package memory provides an in-process repository.Store used for local
// development without Postgres and as the test double for services.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/pet-adoption/internal/domain"
	"github.com/spec-kit/pet-adoption/internal/repository"
)

type state struct {
	users     map[string]domain.User
	pets      map[string]domain.Pet
	adoptions map[string]domain.Adoption
	// seq orders rows inserted within the same clock tick.
	seq   int64
	order map[string]int64
}

func newState() *state {
	return &state{
		users:     make(map[string]domain.User),
		pets:      make(map[string]domain.Pet),
		adoptions: make(map[string]domain.Adoption),
		order:     make(map[string]int64),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.pets {
		c.pets[k] = v
	}
	for k, v := range s.adoptions {
		c.adoptions[k] = v
	}
	for k, v := range s.order {
		c.order[k] = v
	}
	c.seq = s.seq
	return c
}

func (s *state) nextID() string {
	id := uuid.NewString()
	s.seq++
	s.order[id] = s.seq
	return id
}

// Store is a mutex-guarded in-memory repository.Store. Transactions hold the
// lock for their whole duration, so they are fully serialized.
type Store struct {
	mu   *sync.Mutex
	data **state
	inTx bool
	now  func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	data := newState()
	return &Store{mu: &sync.Mutex{}, data: &data, now: time.Now}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) current() *state { return *s.data }

func (s *Store) Users() repository.UserRepository         { return &userRepo{s} }
func (s *Store) Pets() repository.PetRepository           { return &petRepo{s} }
func (s *Store) Adoptions() repository.AdoptionRepository { return &adoptionRepo{s} }

// WithTx runs fn while holding the store lock and restores the previous
// state if fn fails or panics.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.current().clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true, now: s.now}

	defer func() {
		if p := recover(); p != nil {
			*s.data = snapshot
			panic(p)
		}
		if err != nil {
			*s.data = snapshot
		}
	}()

	return fn(tx)
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	st := r.s.current()
	for _, existing := range st.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = st.nextID()
	user.CreatedAt = now
	user.UpdatedAt = now
	st.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	defer r.s.lock()()
	user, ok := r.s.current().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, user := range r.s.current().users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type petRepo struct{ s *Store }

func (r *petRepo) Create(_ context.Context, pet *domain.Pet) error {
	defer r.s.lock()()
	st := r.s.current()
	now := r.s.now()
	pet.ID = st.nextID()
	pet.CreatedAt = now
	pet.UpdatedAt = now
	st.pets[pet.ID] = *pet
	return nil
}

func (r *petRepo) Update(_ context.Context, pet *domain.Pet) error {
	defer r.s.lock()()
	st := r.s.current()
	existing, ok := st.pets[pet.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = pet.Name
	existing.Species = pet.Species
	existing.Breed = pet.Breed
	existing.Age = pet.Age
	existing.Description = pet.Description
	existing.ImageURL = pet.ImageURL
	existing.UpdatedAt = r.s.now()
	st.pets[pet.ID] = existing

	pet.Status = existing.Status
	pet.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *petRepo) UpdateStatus(_ context.Context, id string, status domain.PetStatus) error {
	defer r.s.lock()()
	st := r.s.current()
	pet, ok := st.pets[id]
	if !ok {
		return repository.ErrNotFound
	}
	pet.Status = status
	pet.UpdatedAt = r.s.now()
	st.pets[id] = pet
	return nil
}

func (r *petRepo) GetByID(_ context.Context, id string) (*domain.Pet, error) {
	defer r.s.lock()()
	pet, ok := r.s.current().pets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pet, nil
}

func (r *petRepo) GetForUpdate(ctx context.Context, id string) (*domain.Pet, error) {
	return r.GetByID(ctx, id)
}

func (r *petRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	st := r.s.current()
	if _, ok := st.pets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(st.pets, id)
	for key, adoption := range st.adoptions {
		if adoption.PetID != nil && *adoption.PetID == id {
			adoption.PetID = nil
			st.adoptions[key] = adoption
		}
	}
	return nil
}

func (r *petRepo) List(_ context.Context, filter repository.PetFilter) ([]domain.Pet, int, error) {
	filter.Normalize()
	defer r.s.lock()()
	st := r.s.current()

	matched := make([]domain.Pet, 0)
	for _, pet := range st.pets {
		if matchesPet(pet, filter) {
			matched = append(matched, pet)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return st.order[matched[i].ID] < st.order[matched[j].ID]
	})

	total := len(matched)
	if filter.Offset >= total {
		return []domain.Pet{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func matchesPet(pet domain.Pet, filter repository.PetFilter) bool {
	if filter.Status != nil && pet.Status != *filter.Status {
		return false
	}
	if filter.Species != nil && strings.TrimSpace(*filter.Species) != "" &&
		!strings.EqualFold(pet.Species, strings.TrimSpace(*filter.Species)) {
		return false
	}
	if filter.Breed != nil && strings.TrimSpace(*filter.Breed) != "" &&
		!strings.EqualFold(pet.Breed, strings.TrimSpace(*filter.Breed)) {
		return false
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if !strings.Contains(strings.ToLower(pet.Name), term) && !strings.Contains(strings.ToLower(pet.Breed), term) {
			return false
		}
	}
	return true
}

type adoptionRepo struct{ s *Store }

func (r *adoptionRepo) Create(_ context.Context, adoption *domain.Adoption) error {
	defer r.s.lock()()
	st := r.s.current()
	if adoption.PetID == nil {
		return repository.ErrNotFound
	}
	if _, ok := st.users[adoption.UserID]; !ok {
		return repository.ErrInvalidReference
	}
	if _, ok := st.pets[*adoption.PetID]; !ok {
		return repository.ErrInvalidReference
	}
	if adoption.Status == domain.AdoptionStatusPending {
		for _, existing := range st.adoptions {
			if existing.Status == domain.AdoptionStatusPending &&
				existing.UserID == adoption.UserID &&
				existing.PetID != nil && *existing.PetID == *adoption.PetID {
				return repository.ErrDuplicate
			}
		}
	}
	adoption.ID = st.nextID()
	adoption.AppliedAt = r.s.now()
	st.adoptions[adoption.ID] = *adoption
	return nil
}

func (r *adoptionRepo) GetForUpdate(_ context.Context, id string) (*domain.Adoption, error) {
	defer r.s.lock()()
	adoption, ok := r.s.current().adoptions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &adoption, nil
}

func (r *adoptionRepo) UpdateStatus(_ context.Context, adoption *domain.Adoption) error {
	defer r.s.lock()()
	st := r.s.current()
	existing, ok := st.adoptions[adoption.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Status = adoption.Status
	existing.DecidedAt = adoption.DecidedAt
	st.adoptions[adoption.ID] = existing
	return nil
}

func (r *adoptionRepo) CountPendingByPet(_ context.Context, petID string) (int, error) {
	defer r.s.lock()()
	count := 0
	for _, adoption := range r.s.current().adoptions {
		if adoption.Status == domain.AdoptionStatusPending && adoption.PetID != nil && *adoption.PetID == petID {
			count++
		}
	}
	return count, nil
}

func (r *adoptionRepo) ListByUser(_ context.Context, userID string) ([]domain.AdoptionView, error) {
	defer r.s.lock()()
	return r.views(func(a domain.Adoption) bool { return a.UserID == userID }), nil
}

func (r *adoptionRepo) ListAll(_ context.Context) ([]domain.AdoptionView, error) {
	defer r.s.lock()()
	return r.views(func(domain.Adoption) bool { return true }), nil
}

func (r *adoptionRepo) views(keep func(domain.Adoption) bool) []domain.AdoptionView {
	st := r.s.current()
	result := make([]domain.AdoptionView, 0)
	for _, adoption := range st.adoptions {
		if !keep(adoption) {
			continue
		}
		user := st.users[adoption.UserID]
		view := domain.AdoptionView{
			ID:        adoption.ID,
			Status:    adoption.Status,
			AppliedAt: adoption.AppliedAt,
			DecidedAt: adoption.DecidedAt,
			UserID:    adoption.UserID,
			UserName:  user.Name,
			UserEmail: user.Email,
			PetID:     adoption.PetID,
		}
		if adoption.PetID != nil {
			if pet, ok := st.pets[*adoption.PetID]; ok {
				view.PetName = pet.Name
				view.PetSpecies = pet.Species
				view.PetBreed = pet.Breed
			}
		}
		result = append(result, view)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AppliedAt.Equal(result[j].AppliedAt) {
			return result[i].AppliedAt.After(result[j].AppliedAt)
		}
		return st.order[result[i].ID] > st.order[result[j].ID]
	})
	return result
}
