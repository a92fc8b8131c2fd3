package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgMatchComplete
	MsgUploadEvent
	MsgUploadComplete
	MsgGalleryChanged
	MsgDownloadComplete
)

type matchResult struct {
	snap tasks.Snapshot
	err  error
}

type downloadResult struct {
	result *tasks.DownloadResult
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// matchCompleteMsg is the constructor for [MsgMatchComplete]
func matchCompleteMsg(snap tasks.Snapshot, err error) Msg {
	return Msg{kind: MsgMatchComplete, data: matchResult{snap, err}}
}

// uploadEventMsg is the constructor for [MsgUploadEvent]
func uploadEventMsg(ev tasks.UploadEvent) Msg {
	return Msg{kind: MsgUploadEvent, data: ev}
}

// uploadCompleteMsg is the constructor for [MsgUploadComplete]
func uploadCompleteMsg() Msg {
	return Msg{kind: MsgUploadComplete}
}

// galleryChangedMsg is the constructor for [MsgGalleryChanged]
func galleryChangedMsg(list []models.ImageReference) Msg {
	return Msg{kind: MsgGalleryChanged, data: list}
}

// downloadCompleteMsg is the constructor for [MsgDownloadComplete]
func downloadCompleteMsg(result *tasks.DownloadResult, err error) Msg {
	return Msg{kind: MsgDownloadComplete, data: downloadResult{result, err}}
}
