// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// A single screen composes the matcher session:
//   - the reference slot and the persisted gallery (collapsible with v)
//   - the match control with the last request time, a spinner while in flight and the error line
//   - the matched list with Download All, or "No images matched." when there is nothing to show
//
// Uploads are requested through a prompt (r for the reference, g for the gallery) and results stream back as
// [Msg] values. The preview [Modal] covers the screen; clicking the scrim or its [x] control closes it.
//
// Gallery appends made by other processes arrive through the store's subscription and re-render the list.
package ui
