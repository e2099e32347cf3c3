package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/pet-adoption/internal/config"
	"github.com/spec-kit/pet-adoption/internal/domain"
	"github.com/spec-kit/pet-adoption/internal/events"
	"github.com/spec-kit/pet-adoption/internal/repository/memory"
)

type testEnv struct {
	store     *memory.Store
	events    *[]events.Event
	auth      *AuthService
	pets      *PetService
	adoptions *AdoptionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher(nil)
	published := &[]events.Event{}
	var mu sync.Mutex
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			mu.Lock()
			defer mu.Unlock()
			*published = append(*published, e)
			return nil
		})
	}

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}}
	authSvc, err := NewAuthService(cfg, store)
	require.NoError(t, err)

	return &testEnv{
		store:     store,
		events:    published,
		auth:      authSvc,
		pets:      NewPetService(PetDependencies{Store: store, Dispatcher: dispatcher, MaxImageBytes: 1024}),
		adoptions: NewAdoptionService(store, dispatcher),
	}
}

func (e *testEnv) registerUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user, _, err := e.auth.Register(context.Background(), RegisterInput{Name: "User " + email, Email: email, Password: "password123"})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createPet(t *testing.T, name, species, breed string) *domain.Pet {
	t.Helper()
	pet, err := e.pets.Create(context.Background(), "admin", domain.PetFields{Name: name, Species: species, Breed: breed, Age: 2}, nil)
	require.NoError(t, err)
	return pet
}

func (e *testEnv) petStatus(t *testing.T, id string) domain.PetStatus {
	t.Helper()
	pet, err := e.store.Pets().GetByID(context.Background(), id)
	require.NoError(t, err)
	return pet.Status
}
