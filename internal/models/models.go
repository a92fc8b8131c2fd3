// package models defines the data model for the image matching workflow
package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// ImageReference is an opaque string identifying an image resource.
type ImageReference string

// schemes that require a host to be well formed
var hostSchemes = map[string]bool{
	"http": true, "https": true, "ftp": true, "ws": true, "wss": true,
}

// Valid reports whether r parses as a well-formed absolute URL.
//
// Content type and reachability are not checked. Surrounding whitespace and bare schemes such as "foo:" are
// rejected, which is stricter than a browser URL parser.
func (r ImageReference) Valid() bool {
	s := string(r)
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	if hostSchemes[strings.ToLower(u.Scheme)] && u.Host == "" {
		return false
	}
	return u.Opaque != "" || u.Host != "" || u.Path != ""
}

func (r ImageReference) String() string { return string(r) }

// Strings converts refs to plain strings, never returning nil.
func Strings(refs []ImageReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = string(r)
	}
	return out
}

// References converts plain strings to [ImageReference] values, never returning nil.
func References(ss []string) []ImageReference {
	out := make([]ImageReference, len(ss))
	for i, s := range ss {
		out[i] = ImageReference(s)
	}
	return out
}

// Slot is the upload target category.
type Slot string

const (
	SlotReference Slot = "reference"
	SlotGallery   Slot = "gallery"
)

// ParseSlot validates s as a [Slot].
func ParseSlot(s string) (Slot, error) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case SlotReference:
		return SlotReference, nil
	case SlotGallery:
		return SlotGallery, nil
	default:
		return "", fmt.Errorf("unknown slot %q (want reference or gallery)", s)
	}
}

// WorkflowState is the position of the match workflow state machine.
type WorkflowState int

const (
	StateIdle WorkflowState = iota
	StateValidating
	StateInFlight
	StateSucceeded
	StateFailed
)

func (s WorkflowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateInFlight:
		return "in_flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a submission.
func (s WorkflowState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// ParseWorkflowState is the inverse of [WorkflowState.String].
func ParseWorkflowState(s string) (WorkflowState, error) {
	for st := StateIdle; st <= StateFailed; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return StateIdle, fmt.Errorf("unknown workflow state %q", s)
}
