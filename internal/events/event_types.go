package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/pet-adoption/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPetCreated        EventType = "pet_created"
	EventPetUpdated        EventType = "pet_updated"
	EventPetDeleted        EventType = "pet_deleted"
	EventAdoptionSubmitted EventType = "adoption_submitted"
	EventAdoptionDecided   EventType = "adoption_decided"
)

// AllEventTypes lists every type a relay should forward.
var AllEventTypes = []EventType{
	EventPetCreated,
	EventPetUpdated,
	EventPetDeleted,
	EventAdoptionSubmitted,
	EventAdoptionDecided,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	PetID         string      `json:"pet_id,omitempty"`
	ApplicationID string      `json:"application_id,omitempty"`
	Actor         Actor       `json:"actor"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// PetChangedPayload payload for pet_created and pet_updated.
type PetChangedPayload struct {
	Name    string           `json:"name"`
	Species string           `json:"species"`
	Breed   string           `json:"breed,omitempty"`
	Status  domain.PetStatus `json:"status"`
}

// AdoptionSubmittedPayload payload.
type AdoptionSubmittedPayload struct {
	PetName string `json:"pet_name"`
}

// AdoptionDecidedPayload payload.
type AdoptionDecidedPayload struct {
	Decision     domain.AdoptionStatus `json:"decision"`
	ApplicantID  string                `json:"applicant_id"`
	NewPetStatus domain.PetStatus      `json:"new_pet_status"`
}
