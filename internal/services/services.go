// package services defines the remote collaborators of the match workflow
//
// Match service (HTTP), Cloudinary (hosted uploads)
package services

import (
	"context"

	"github.com/desertthunder/imgmatch/internal/models"
)

// Matcher asks a remote service which gallery images match a reference image.
type Matcher interface {
	// Match sends the reference and the full gallery list and returns the matching references in the order
	// the service returned them. Any transport, status or decoding failure is an error.
	Match(ctx context.Context, reference models.ImageReference, gallery []models.ImageReference) ([]models.ImageReference, error)
}

// UploadCapability is a hosted upload widget.
type UploadCapability interface {
	// Upload processes sources and reports one outcome per item on the returned channel, which is closed
	// once every item has been reported or ctx is done.
	Upload(ctx context.Context, opts models.UploadOptions, sources []models.UploadSource) <-chan models.UploadOutcome
}
