package domain

import "time"

// AdoptionStatus enumerates the lifecycle of an adoption application.
type AdoptionStatus string

const (
	AdoptionStatusPending  AdoptionStatus = "PENDING"
	AdoptionStatusApproved AdoptionStatus = "APPROVED"
	AdoptionStatusRejected AdoptionStatus = "REJECTED"
)

// IsDecision reports whether s is a terminal status an admin may choose.
func (s AdoptionStatus) IsDecision() bool {
	return s == AdoptionStatusApproved || s == AdoptionStatusRejected
}

// ResultingPetStatus is the pet status implied by an application in status s.
func (s AdoptionStatus) ResultingPetStatus() PetStatus {
	switch s {
	case AdoptionStatusApproved:
		return PetStatusAdopted
	case AdoptionStatusRejected:
		return PetStatusAvailable
	default:
		return PetStatusPending
	}
}

// Adoption is an application by a user to adopt a pet.
// PetID is nil once the pet has been removed from the catalog.
type Adoption struct {
	ID        string
	UserID    string
	PetID     *string
	Status    AdoptionStatus
	AppliedAt time.Time
	DecidedAt *time.Time
}

// AdoptionView joins an application with applicant and pet summaries.
type AdoptionView struct {
	ID         string
	Status     AdoptionStatus
	AppliedAt  time.Time
	DecidedAt  *time.Time
	UserID     string
	UserName   string
	UserEmail  string
	PetID      *string
	PetName    string
	PetSpecies string
	PetBreed   string
}
