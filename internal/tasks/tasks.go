// package tasks implements the match workflow, the upload orchestrator and download-all.
//
// The core abstraction is MatchEngine, which drives one submission through validation, the remote request and
// result interpretation. Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imgmatch/internal/gallery"
	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/services"
	"github.com/desertthunder/imgmatch/internal/shared"
)

// User-visible messages.
const (
	MsgMissingInputs   = "Please provide both reference URL and gallery URLs."
	MsgNoMatches       = "No images matched."
	MsgMatchFailed     = "An error occurred while matching images."
	MsgInvalidImageURL = "Invalid image URL."
	MsgUploadFailed    = "Upload failed."
)

// RunRecorder persists finished submissions.
type RunRecorder interface {
	Record(run *models.MatchRun) error
}

// MatchEngine implements the match workflow state machine:
//
//	Idle → Validating → InFlight → {Succeeded | Failed}
//
// A new submission from a terminal state re-enters Validating.
type MatchEngine struct {
	session  *Session
	gallery  gallery.Store
	matcher  services.Matcher
	recorder RunRecorder
	logger   *log.Logger
}

// NewMatchEngine creates a MatchEngine. recorder may be nil.
func NewMatchEngine(session *Session, store gallery.Store, matcher services.Matcher, recorder RunRecorder, logger *log.Logger) *MatchEngine {
	if session == nil {
		session = NewSession()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &MatchEngine{
		session:  session,
		gallery:  store,
		matcher:  matcher,
		recorder: recorder,
		logger:   shared.WithLogger(logger, "component", "tasks"),
	}
}

// Session returns the session the engine writes to.
func (e *MatchEngine) Session() *Session { return e.session }

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Submit runs one submission to a terminal state and returns the resulting snapshot.
//
// Errors:
//   - [shared.ErrSubmissionInFlight] : another submission has not finished; nothing changes
//   - [shared.ErrMissingImages] : no reference and an empty gallery; no request is issued
//   - [shared.ErrMatchRequest] : the remote call failed; previous matches are kept
//
// An empty result is not an error: the state is Succeeded and the error line reads "No images matched.".
func (e *MatchEngine) Submit(ctx context.Context, progress chan<- ProgressUpdate) (Snapshot, error) {
	if e.matcher == nil {
		return e.session.Snapshot(), fmt.Errorf("%w: matcher not initialized", shared.ErrServiceUnavailable)
	}

	busy := false
	snap := e.session.update(func(s *Session) {
		if s.state == models.StateValidating || s.state == models.StateInFlight {
			busy = true
			return
		}
		s.state = models.StateValidating
	})
	if busy {
		return snap, shared.ErrSubmissionInFlight
	}
	sendProgress(progress, validatingUpdate())

	reference := snap.Reference
	var list []models.ImageReference
	if e.gallery != nil {
		list = e.gallery.Load(ctx)
	}

	if reference == "" && len(list) == 0 {
		snap = e.session.update(func(s *Session) {
			s.state = models.StateFailed
			s.errMsg = MsgMissingInputs
		})
		e.logger.Debug("submission rejected", "state", snap.State)
		sendProgress(progress, failedUpdate(snap))
		return snap, shared.ErrMissingImages
	}

	e.session.update(func(s *Session) {
		s.state = models.StateInFlight
		s.errMsg = ""
	})
	sendProgress(progress, inFlightUpdate(reference, len(list)))
	e.logger.Info("submitting match request", "reference", reference, "gallery", len(list))

	start := time.Now()
	matches, err := e.matcher.Match(ctx, reference, list)
	elapsed := shared.RoundMillis(time.Since(start))

	run := models.NewMatchRun(shared.GenerateID(), reference, list)
	run.ElapsedMS = elapsed

	if err != nil {
		snap = e.session.update(func(s *Session) {
			s.state = models.StateFailed
			s.errMsg = MsgMatchFailed
			s.elapsedMS, s.hasElapsed = elapsed, true
		})
		e.logger.Warn("match request failed", "error", err, "elapsed_ms", elapsed)

		run.State, run.Error = models.StateFailed, MsgMatchFailed
		e.record(run)
		sendProgress(progress, failedUpdate(snap))

		if !errors.Is(err, shared.ErrMatchRequest) {
			err = fmt.Errorf("%w: %v", shared.ErrMatchRequest, err)
		}
		return snap, err
	}

	if matches == nil {
		matches = []models.ImageReference{}
	}
	snap = e.session.update(func(s *Session) {
		s.state = models.StateSucceeded
		s.matches = append([]models.ImageReference{}, matches...)
		if len(matches) == 0 {
			s.errMsg = MsgNoMatches
		}
		s.elapsedMS, s.hasElapsed = elapsed, true
	})
	e.logger.Info("match request finished", "matches", len(matches), "elapsed_ms", elapsed)

	run.State, run.Matches, run.Error = models.StateSucceeded, matches, snap.Error
	e.record(run)
	sendProgress(progress, succeededUpdate(snap))

	return snap, nil
}

func (e *MatchEngine) record(run *models.MatchRun) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(run); err != nil {
		e.logger.Error("failed to record match run", "id", run.ID(), "error", err)
	}
}
