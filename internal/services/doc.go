// Package services implements the remote collaborators used by the match workflow.
//
// # Match Service
//
// [MatchService] implements [Matcher]. It posts {"reference_url", "gallery_urls"} to the configured endpoint
// through [APIService] and expects the response body to be a bare JSON array of URL strings, not wrapped in an
// envelope. Any non-2xx status or unparsable body is a failure.
//
// [NewHTTPClient] builds the underlying client; when a token URL is configured it uses the OAuth2 client
// credentials flow so the matcher can sit behind an authenticating gateway.
//
// # Upload Capability
//
// [CloudinaryService] implements [UploadCapability] with Cloudinary unsigned uploads
// (POST /v1_1/{cloud}/image/upload with an upload_preset). Each item yields one [models.UploadOutcome] on a
// channel, so callers consume results as they arrive. Camera sources need a browser widget and are reported
// as per-item failures.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrMatchRequest] : match request failed or returned a malformed body
//   - [shared.ErrUploadFailed] : upload transport or API failure
//   - [shared.ErrUnsupportedSource] : source kind not permitted or not supported
//   - [shared.ErrMissingConfig] : cloud name or upload preset missing
package services
