package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pet-adoption/internal/domain"
)

// Pagination bounds for pet listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PetFilter captures catalog search parameters.
type PetFilter struct {
	Status     *domain.PetStatus
	Species    *string
	Breed      *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// Normalize clamps limit and offset into their accepted ranges.
func (f *PetFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// PetRepository encapsulates pet persistence.
type PetRepository interface {
	Create(ctx context.Context, pet *domain.Pet) error
	// Update writes the editable fields and image; status is left untouched.
	Update(ctx context.Context, pet *domain.Pet) error
	UpdateStatus(ctx context.Context, id string, status domain.PetStatus) error
	GetByID(ctx context.Context, id string) (*domain.Pet, error)
	// GetForUpdate reads the pet and locks it until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Pet, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter PetFilter) ([]domain.Pet, int, error)
}

type petRepository struct {
	db DBTX
}

// NewPetRepository instantiates repository.
func NewPetRepository(db DBTX) PetRepository {
	return &petRepository{db: db}
}

const petColumns = `id, name, species, breed, age, description, image_url, status, created_at, updated_at`

func (r *petRepository) Create(ctx context.Context, pet *domain.Pet) error {
	const query = `
        INSERT INTO pets (name, species, breed, age, description, image_url, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		pet.Name,
		pet.Species,
		pet.Breed,
		pet.Age,
		pet.Description,
		pet.ImageURL,
		pet.Status,
	).Scan(&pet.ID, &pet.CreatedAt, &pet.UpdatedAt)
	return translate(err)
}

func (r *petRepository) Update(ctx context.Context, pet *domain.Pet) error {
	const query = `
        UPDATE pets SET name=$1, species=$2, breed=$3, age=$4, description=$5, image_url=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING status, updated_at`
	err := r.db.QueryRow(ctx, query,
		pet.Name,
		pet.Species,
		pet.Breed,
		pet.Age,
		pet.Description,
		pet.ImageURL,
		pet.ID,
	).Scan(&pet.Status, &pet.UpdatedAt)
	return translate(err)
}

func (r *petRepository) UpdateStatus(ctx context.Context, id string, status domain.PetStatus) error {
	const query = `UPDATE pets SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *petRepository) GetByID(ctx context.Context, id string) (*domain.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *petRepository) GetForUpdate(ctx context.Context, id string) (*domain.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pets WHERE id=$1 FOR UPDATE`
	return r.fetchSingle(ctx, query, id)
}

func (r *petRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM pets WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *petRepository) List(ctx context.Context, filter PetFilter) ([]domain.Pet, int, error) {
	filter.Normalize()

	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Species != nil && strings.TrimSpace(*filter.Species) != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(*filter.Species)))
		clauses = append(clauses, fmt.Sprintf("LOWER(species)=$%d", len(args)))
	}
	if filter.Breed != nil && strings.TrimSpace(*filter.Breed) != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(*filter.Breed)))
		clauses = append(clauses, fmt.Sprintf("LOWER(breed)=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + escapeLike(strings.ToLower(strings.TrimSpace(*filter.SearchTerm))) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(breed) LIKE %s)", placeholder, placeholder))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pets WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	query := fmt.Sprintf(`SELECT %s FROM pets WHERE %s ORDER BY created_at ASC, id ASC LIMIT %d OFFSET %d`,
		petColumns, where, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	pets, err := scanPets(rows)
	if err != nil {
		return nil, 0, translate(err)
	}
	return pets, total, nil
}

func (r *petRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Pet, error) {
	var pet domain.Pet
	if err := scanPet(r.db.QueryRow(ctx, query, arg), &pet); err != nil {
		return nil, translate(err)
	}
	return &pet, nil
}

func scanPet(row pgx.Row, pet *domain.Pet) error {
	return row.Scan(
		&pet.ID,
		&pet.Name,
		&pet.Species,
		&pet.Breed,
		&pet.Age,
		&pet.Description,
		&pet.ImageURL,
		&pet.Status,
		&pet.CreatedAt,
		&pet.UpdatedAt,
	)
}

func scanPets(rows pgx.Rows) ([]domain.Pet, error) {
	result := []domain.Pet{}
	for rows.Next() {
		var pet domain.Pet
		if err := scanPet(rows, &pet); err != nil {
			return nil, err
		}
		result = append(result, pet)
	}
	return result, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
