package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pet-adoption/internal/domain"
)

// AdoptionRepository persists adoption applications.
type AdoptionRepository interface {
	// Create inserts a PENDING application. A second open application for the
	// same user and pet fails with ErrDuplicate.
	Create(ctx context.Context, adoption *domain.Adoption) error
	// GetForUpdate reads the application and locks it until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Adoption, error)
	UpdateStatus(ctx context.Context, adoption *domain.Adoption) error
	CountPendingByPet(ctx context.Context, petID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]domain.AdoptionView, error)
	ListAll(ctx context.Context) ([]domain.AdoptionView, error)
}

type adoptionRepository struct {
	db DBTX
}

// NewAdoptionRepository constructs repository.
func NewAdoptionRepository(db DBTX) AdoptionRepository {
	return &adoptionRepository{db: db}
}

func (r *adoptionRepository) Create(ctx context.Context, adoption *domain.Adoption) error {
	const query = `
        INSERT INTO adoptions (user_id, pet_id, status)
        VALUES ($1,$2,$3)
        RETURNING id, applied_at`
	err := r.db.QueryRow(ctx, query,
		adoption.UserID,
		adoption.PetID,
		adoption.Status,
	).Scan(&adoption.ID, &adoption.AppliedAt)
	return translate(err)
}

func (r *adoptionRepository) GetForUpdate(ctx context.Context, id string) (*domain.Adoption, error) {
	const query = `
        SELECT id, user_id, pet_id, status, applied_at, decided_at
        FROM adoptions WHERE id=$1 FOR UPDATE`
	var adoption domain.Adoption
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&adoption.ID,
		&adoption.UserID,
		&adoption.PetID,
		&adoption.Status,
		&adoption.AppliedAt,
		&adoption.DecidedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &adoption, nil
}

func (r *adoptionRepository) UpdateStatus(ctx context.Context, adoption *domain.Adoption) error {
	const query = `UPDATE adoptions SET status=$1, decided_at=$2 WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query, adoption.Status, adoption.DecidedAt, adoption.ID)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adoptionRepository) CountPendingByPet(ctx context.Context, petID string) (int, error) {
	const query = `SELECT COUNT(*) FROM adoptions WHERE pet_id=$1 AND status=$2`
	var count int
	if err := r.db.QueryRow(ctx, query, petID, domain.AdoptionStatusPending).Scan(&count); err != nil {
		return 0, translate(err)
	}
	return count, nil
}

const adoptionViewQuery = `
        SELECT a.id, a.status, a.applied_at, a.decided_at,
               u.id, u.name, u.email,
               a.pet_id, COALESCE(p.name, ''), COALESCE(p.species, ''), COALESCE(p.breed, '')
        FROM adoptions a
        JOIN users u ON a.user_id = u.id
        LEFT JOIN pets p ON a.pet_id = p.id`

func (r *adoptionRepository) ListByUser(ctx context.Context, userID string) ([]domain.AdoptionView, error) {
	rows, err := r.db.Query(ctx, adoptionViewQuery+` WHERE a.user_id=$1 ORDER BY a.applied_at DESC, a.id`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return scanAdoptionViews(rows)
}

func (r *adoptionRepository) ListAll(ctx context.Context) ([]domain.AdoptionView, error) {
	rows, err := r.db.Query(ctx, adoptionViewQuery+` ORDER BY a.applied_at DESC, a.id`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return scanAdoptionViews(rows)
}

func scanAdoptionViews(rows pgx.Rows) ([]domain.AdoptionView, error) {
	result := []domain.AdoptionView{}
	for rows.Next() {
		var view domain.AdoptionView
		if err := rows.Scan(
			&view.ID,
			&view.Status,
			&view.AppliedAt,
			&view.DecidedAt,
			&view.UserID,
			&view.UserName,
			&view.UserEmail,
			&view.PetID,
			&view.PetName,
			&view.PetSpecies,
			&view.PetBreed,
		); err != nil {
			return nil, translate(err)
		}
		result = append(result, view)
	}
	return result, translate(rows.Err())
}
