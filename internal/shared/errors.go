package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMatchRequest       = fmt.Errorf("match request failed")
	ErrUploadFailed       = fmt.Errorf("upload failed")
	ErrUnsupportedSource  = fmt.Errorf("unsupported upload source")
	ErrRunNotFound        = fmt.Errorf("match run not found")

	// Workflow errors
	ErrSubmissionInFlight = fmt.Errorf("a match request is already in flight")
	ErrNoMatches          = fmt.Errorf("no images matched")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingImages   = fmt.Errorf("missing reference and gallery images")
	ErrInvalidImageURL = fmt.Errorf("invalid image URL")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
