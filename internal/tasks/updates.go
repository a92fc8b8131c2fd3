package tasks

import (
	"fmt"

	"github.com/desertthunder/imgmatch/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Validating Phase = iota
	Requesting
	Succeeded
	Failed
	Uploading
	Downloading
)

func (p Phase) String() string {
	switch p {
	case Validating:
		return "validating"
	case Requesting:
		return "requesting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Uploading:
		return "uploading"
	case Downloading:
		return "downloading"
	default:
		return ""
	}
}

func validatingUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Validating, Step: 1, Total: 3, Message: "Validating inputs..."}
}

func inFlightUpdate(ref models.ImageReference, galleryCount int) ProgressUpdate {
	msg := fmt.Sprintf("Matching %d gallery images...", galleryCount)
	if ref != "" {
		msg = fmt.Sprintf("Matching %d gallery images against %s...", galleryCount, ref)
	}
	return ProgressUpdate{Phase: Requesting, Step: 2, Total: 3, Message: msg}
}

func succeededUpdate(snap Snapshot) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Succeeded,
		Step:    3,
		Total:   3,
		Message: fmt.Sprintf("%d matches in %.2f ms", len(snap.Matches), snap.ElapsedMS),
		Data:    snap,
	}
}

func failedUpdate(snap Snapshot) ProgressUpdate {
	return ProgressUpdate{Phase: Failed, Step: 3, Total: 3, Message: snap.Error, Data: snap}
}

func uploadUpdate(step int, ev UploadEvent) ProgressUpdate {
	msg := fmt.Sprintf("[%d] ✓ %s", step, ev.Ref)
	if ev.Err != nil {
		msg = fmt.Sprintf("[%d] ✗ %s: %s", step, ev.Outcome.Source.Label(), ev.Message)
	}
	return ProgressUpdate{Phase: Uploading, Step: step, Message: msg, Data: ev}
}

func downloadUpdate(step, total int, item DownloadItem) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, item.Path)
	if item.Err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, item.Ref, item.Err)
	}
	return ProgressUpdate{Phase: Downloading, Step: step, Total: total, Message: msg, Data: item}
}
