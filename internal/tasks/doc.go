// Package tasks drives the image matching workflow with real-time progress reporting.
//
// # Match Workflow
//
// [MatchEngine.Submit] moves the session through Idle → Validating → InFlight → {Succeeded | Failed}:
//
//  1. A submission while another is validating or in flight is rejected with [shared.ErrSubmissionInFlight].
//  2. Validation fails only when the reference slot is unset and the gallery is empty. No request is sent.
//  3. The error line is cleared, the clock starts and the remote matcher is called once with the reference
//     and the full gallery list.
//  4. A response replaces the matches; an empty one also sets "No images matched.".
//     A failure sets "An error occurred while matching images." and keeps the previous matches.
//  5. Either outcome records the elapsed milliseconds and stores a [models.MatchRun] through the optional [RunRecorder].
//
// There are no retries. The context passed to Submit is the only way to abandon a request.
//
// # Uploads
//
// [Orchestrator.RequestUpload] starts the upload capability for a slot and returns a channel of [UploadEvent].
// Each outcome is validated by [Orchestrator.Apply]: capability errors and malformed URLs set the session error
// line and change nothing; accepted references overwrite the reference slot or are appended to the gallery store.
//
// # Download All
//
// [DownloadAll] saves the current matches in order through a rate limiter, collecting per-item failures.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates. Updates use select with default so a slow
// consumer never stalls the workflow.
package tasks
