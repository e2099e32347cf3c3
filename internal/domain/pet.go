package domain

import "time"

// PetStatus enumerates the availability lifecycle of a pet.
// It is owned by the adoption workflow and never set through catalog edits.
type PetStatus string

const (
	PetStatusAvailable PetStatus = "AVAILABLE"
	PetStatusPending   PetStatus = "PENDING"
	PetStatusAdopted   PetStatus = "ADOPTED"
)

// Pet is a catalog entry that can be adopted.
type Pet struct {
	ID          string
	Name        string
	Species     string
	Breed       string
	Age         int
	Description string
	ImageURL    *string
	Status      PetStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PetFields are the admin-editable attributes of a pet.
type PetFields struct {
	Name        string
	Species     string
	Breed       string
	Age         int
	Description string
}

// Apply copies the editable fields onto p.
func (f PetFields) Apply(p *Pet) {
	p.Name = f.Name
	p.Species = f.Species
	p.Breed = f.Breed
	p.Age = f.Age
	p.Description = f.Description
}
