package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/pet-adoption/internal/domain"
	"github.com/spec-kit/pet-adoption/internal/repository"
)

func seedUserAndPet(t *testing.T, s *Store) (*domain.User, *domain.Pet) {
	t.Helper()
	ctx := context.Background()
	user := &domain.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, s.Users().Create(ctx, user))
	pet := &domain.Pet{Name: "Milo", Species: "Dog", Breed: "Beagle", Status: domain.PetStatusAvailable}
	require.NoError(t, s.Pets().Create(ctx, pet))
	return user, pet
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user, pet := seedUserAndPet(t, s)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx repository.Store) error {
		petID := pet.ID
		require.NoError(t, tx.Adoptions().Create(ctx, &domain.Adoption{UserID: user.ID, PetID: &petID, Status: domain.AdoptionStatusPending}))
		require.NoError(t, tx.Pets().UpdateStatus(ctx, pet.ID, domain.PetStatusPending))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Pets().GetByID(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PetStatusAvailable, got.Status)

	views, err := s.Adoptions().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestStore_WithTx_RollsBackOnPanic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, pet := seedUserAndPet(t, s)

	assert.Panics(t, func() {
		_ = s.WithTx(ctx, func(tx repository.Store) error {
			_ = tx.Pets().UpdateStatus(ctx, pet.ID, domain.PetStatusAdopted)
			panic("unexpected")
		})
	})

	got, err := s.Pets().GetByID(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PetStatusAvailable, got.Status)
}

func TestStore_WithTx_Commits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, pet := seedUserAndPet(t, s)

	require.NoError(t, s.WithTx(ctx, func(tx repository.Store) error {
		return tx.Pets().UpdateStatus(ctx, pet.ID, domain.PetStatusPending)
	}))

	got, err := s.Pets().GetByID(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PetStatusPending, got.Status)
}

func TestAdoptionRepo_PendingPairIsUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user, pet := seedUserAndPet(t, s)
	petID := pet.ID

	first := &domain.Adoption{UserID: user.ID, PetID: &petID, Status: domain.AdoptionStatusPending}
	require.NoError(t, s.Adoptions().Create(ctx, first))

	err := s.Adoptions().Create(ctx, &domain.Adoption{UserID: user.ID, PetID: &petID, Status: domain.AdoptionStatusPending})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	first.Status = domain.AdoptionStatusRejected
	require.NoError(t, s.Adoptions().UpdateStatus(ctx, first))
	require.NoError(t, s.Adoptions().Create(ctx, &domain.Adoption{UserID: user.ID, PetID: &petID, Status: domain.AdoptionStatusPending}))
}

func TestAdoptionRepo_UnknownApplicantIsInvalidReference(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, pet := seedUserAndPet(t, s)
	petID := pet.ID

	err := s.Adoptions().Create(ctx, &domain.Adoption{
		UserID: "4f1c2b3a-0000-4000-8000-000000000001",
		PetID:  &petID,
		Status: domain.AdoptionStatusPending,
	})
	require.ErrorIs(t, err, repository.ErrInvalidReference)
}

func TestUserRepo_EmailIsUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUserAndPet(t, s)

	err := s.Users().Create(ctx, &domain.User{Name: "Other", Email: "ana@example.com", Role: domain.RoleUser})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = s.Users().GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPetRepo_ListFiltersAndPaginates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	pets := []domain.Pet{
		{Name: "Milo", Species: "Dog", Breed: "Beagle", Status: domain.PetStatusAvailable},
		{Name: "Luna", Species: "Cat", Breed: "Siamese", Status: domain.PetStatusAvailable},
		{Name: "Rex", Species: "dog", Breed: "Labrador", Status: domain.PetStatusAvailable},
		{Name: "Bella", Species: "Dog", Breed: "Beagle mix", Status: domain.PetStatusAdopted},
	}
	for i := range pets {
		require.NoError(t, s.Pets().Create(ctx, &pets[i]))
	}

	available := domain.PetStatusAvailable
	dog := "DOG"
	got, total, err := s.Pets().List(ctx, repository.PetFilter{Status: &available, Species: &dog})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "Milo", got[0].Name)
	assert.Equal(t, "Rex", got[1].Name)

	search := "bea"
	got, total, err = s.Pets().List(ctx, repository.PetFilter{Status: &available, SearchTerm: &search})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "Milo", got[0].Name)

	got, total, err = s.Pets().List(ctx, repository.PetFilter{Status: &available, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 1)
	assert.Equal(t, "Rex", got[0].Name)

	got, _, err = s.Pets().List(ctx, repository.PetFilter{Status: &available, Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPetRepo_DeleteDetachesApplications(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user, pet := seedUserAndPet(t, s)
	petID := pet.ID
	adoption := &domain.Adoption{UserID: user.ID, PetID: &petID, Status: domain.AdoptionStatusRejected}
	require.NoError(t, s.Adoptions().Create(ctx, adoption))

	require.NoError(t, s.Pets().Delete(ctx, pet.ID))
	require.ErrorIs(t, s.Pets().Delete(ctx, pet.ID), repository.ErrNotFound)

	views, err := s.Adoptions().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].PetID)
	assert.Empty(t, views[0].PetName)
}
