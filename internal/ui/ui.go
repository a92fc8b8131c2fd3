package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/imgmatch/internal/gallery"
	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
	"github.com/desertthunder/imgmatch/internal/tasks"
)

// Focus is the list receiving navigation keys.
type Focus int

const (
	FocusMatches Focus = iota
	FocusGallery
)

const (
	appTitle      = "Image Matcher"
	noMatchesText = "No images matched."
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	engine   *tasks.MatchEngine
	uploader *tasks.Orchestrator
	store    gallery.Store
	download tasks.DownloadOpts

	width       int
	height      int
	snap        tasks.Snapshot
	gallery     []models.ImageReference
	showGallery bool
	focus       Focus
	matchList   list.Model
	galleryList list.Model
	spinner     spinner.Model
	input       textinput.Model
	inputSlot   models.Slot
	prompting   bool
	modal       Modal
	status      string
	help        help.Model
	keys        keyMap

	matchProgress chan tasks.ProgressUpdate
	matchDone     chan Msg
	dlProgress    chan tasks.ProgressUpdate
	dlDone        chan Msg
	uploads       <-chan tasks.UploadEvent
	galleryCh     chan []models.ImageReference
	unsubscribe   func()
}

// NewModel creates a new TUI model with the provided dependencies.
//
// The model subscribes to external gallery changes immediately; call [Model.Close] to cancel.
func NewModel(ctx context.Context, engine *tasks.MatchEngine, uploader *tasks.Orchestrator, store gallery.Store, download tasks.DownloadOpts) *Model {
	input := textinput.New()
	input.Placeholder = "paths or URLs, separated by spaces"
	input.CharLimit = 2048

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	m := &Model{
		ctx:         ctx,
		engine:      engine,
		uploader:    uploader,
		store:       store,
		download:    download,
		snap:        engine.Session().Snapshot(),
		matchList:   newImageList("Matched Images"),
		galleryList: newImageList("Gallery"),
		spinner:     sp,
		input:       input,
		help:        help.New(),
		keys:        newKeyMap(),
		galleryCh:   make(chan []models.ImageReference, 1),
		unsubscribe: func() {},
	}
	m.matchList.SetSize(80, 10)
	m.galleryList.SetSize(80, 10)

	if store != nil {
		m.setGallery(store.Load(ctx))
		m.unsubscribe = store.Subscribe(func(refs []models.ImageReference) {
			offerLatest(m.galleryCh, refs)
		})
	}
	return m
}

// offerLatest replaces any pending value in ch with refs without blocking.
func offerLatest(ch chan []models.ImageReference, refs []models.ImageReference) {
	for {
		select {
		case ch <- refs:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Close cancels the gallery subscription.
func (m *Model) Close() { m.unsubscribe() }

// Init starts listening for gallery changes.
func (m *Model) Init() tea.Cmd {
	return m.waitForGallery()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.modal.SetSize(msg.Width, msg.Height)
		h := max((msg.Height-16)/2, 5)
		m.matchList.SetSize(msg.Width-4, h)
		m.galleryList.SetSize(msg.Width-4, h)
		return m, nil

	case tea.MouseMsg:
		if m.modal.IsOpen() && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.modal.HandleClick(msg.X, msg.Y)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.modal.IsOpen():
			return m.handleModalKeys(msg)
		case m.prompting:
			return m.handlePromptKeys(msg)
		default:
			return m.handleKeys(msg)
		}

	case spinner.TickMsg:
		if !m.snap.Loading() && m.matchProgress == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.status = update.Message
		if update.Phase == tasks.Downloading {
			return m, waitForProgress(m.dlProgress, m.dlDone)
		}
		m.refresh()
		return m, waitForProgress(m.matchProgress, m.matchDone)

	case MsgMatchComplete:
		res := msg.data.(matchResult)
		m.matchProgress, m.matchDone = nil, nil
		m.snap = res.snap
		m.matchList.SetItems(imageItems("Match", res.snap.Matches))
		switch {
		case errors.Is(res.err, shared.ErrSubmissionInFlight):
			m.status = "A match request is already running."
		case res.err == nil:
			m.status = fmt.Sprintf("%d matches", len(res.snap.Matches))
		default:
			m.status = ""
		}
		return m, nil

	case MsgUploadEvent:
		ev := msg.data.(tasks.UploadEvent)
		if ev.Err != nil {
			m.status = fmt.Sprintf("✗ %s", ev.Outcome.Source.Label())
		} else {
			m.status = fmt.Sprintf("✓ %s", ev.Ref)
		}
		if ev.Gallery != nil {
			m.setGallery(ev.Gallery)
		}
		m.refresh()
		return m, m.waitForUpload()

	case MsgUploadComplete:
		m.uploads = nil
		m.refresh()
		return m, nil

	case MsgGalleryChanged:
		m.setGallery(msg.data.([]models.ImageReference))
		return m, m.waitForGallery()

	case MsgDownloadComplete:
		res := msg.data.(downloadResult)
		m.dlProgress, m.dlDone = nil, nil
		switch {
		case res.err != nil:
			m.status = fmt.Sprintf("Download failed: %v", res.err)
		case res.result != nil:
			m.status = fmt.Sprintf("Downloaded %d/%d images to %s", res.result.Succeeded, len(res.result.Items), res.result.Dir)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.uploadRef):
		return m, m.prompt(models.SlotReference)
	case key.Matches(msg, m.keys.uploadGal):
		return m, m.prompt(models.SlotGallery)
	case key.Matches(msg, m.keys.toggle):
		m.showGallery = !m.showGallery
		if !m.showGallery {
			m.focus = FocusMatches
		}
		return m, nil
	case key.Matches(msg, m.keys.match):
		return m, m.startMatch()
	case key.Matches(msg, m.keys.download):
		return m, m.startDownload()
	case key.Matches(msg, m.keys.previewRef):
		if m.snap.HasReference() {
			m.modal.Open(m.snap.Reference)
		}
		return m, nil
	case key.Matches(msg, m.keys.preview):
		if ref, ok := m.selected(); ok {
			m.modal.Open(ref)
		}
		return m, nil
	case key.Matches(msg, m.keys.focus):
		if m.focus == FocusMatches && m.showGallery {
			m.focus = FocusGallery
		} else {
			m.focus = FocusMatches
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == FocusGallery {
		m.galleryList, cmd = m.galleryList.Update(msg)
	} else {
		m.matchList, cmd = m.matchList.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.modal.Close()
	case key.Matches(msg, m.keys.copy):
		if err := m.modal.Copy(); err != nil {
			m.status = fmt.Sprintf("Copy failed: %v", err)
		} else {
			m.status = "Copied to clipboard"
		}
	case key.Matches(msg, m.keys.open):
		if err := m.modal.Browse(); err != nil {
			m.status = fmt.Sprintf("Open failed: %v", err)
		}
	}
	return m, nil
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompting = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case tea.KeyEnter:
		m.prompting = false
		m.input.Blur()
		args := strings.Fields(m.input.Value())
		m.input.Reset()
		return m, m.startUpload(m.inputSlot, args)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) prompt(slot models.Slot) tea.Cmd {
	if m.uploads != nil {
		m.status = "An upload is already running."
		return nil
	}
	m.prompting = true
	m.inputSlot = slot
	if slot == models.SlotReference {
		m.input.Prompt = "Reference > "
	} else {
		m.input.Prompt = "Gallery > "
	}
	return m.input.Focus()
}

func (m *Model) startUpload(slot models.Slot, args []string) tea.Cmd {
	sources := make([]models.UploadSource, len(args))
	for i, arg := range args {
		sources[i] = models.ParseSource(arg)
	}

	events, err := m.uploader.RequestUpload(m.ctx, slot, sources)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.uploads = events
	m.status = fmt.Sprintf("Uploading %d item(s) to %s...", len(sources), slot)
	return m.waitForUpload()
}

func (m *Model) startMatch() tea.Cmd {
	if m.matchProgress != nil {
		m.status = "A match request is already running."
		return nil
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan Msg, 1)
	m.matchProgress, m.matchDone = progress, done

	go func() {
		snap, err := m.engine.Submit(m.ctx, progress)
		close(progress)
		done <- matchCompleteMsg(snap, err)
	}()

	return tea.Batch(waitForProgress(progress, done), m.spinner.Tick)
}

func (m *Model) startDownload() tea.Cmd {
	if len(m.snap.Matches) == 0 || m.dlProgress != nil {
		return nil
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan Msg, 1)
	m.dlProgress, m.dlDone = progress, done
	matches := append([]models.ImageReference(nil), m.snap.Matches...)

	go func() {
		result, err := tasks.DownloadAll(m.ctx, matches, m.download, progress)
		close(progress)
		done <- downloadCompleteMsg(result, err)
	}()

	return waitForProgress(progress, done)
}

// waitForProgress yields the next update, then the completion message once progress closes.
func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) waitForUpload() tea.Cmd {
	events := m.uploads
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return uploadCompleteMsg()
		}
		return uploadEventMsg(ev)
	}
}

func (m *Model) waitForGallery() tea.Cmd {
	ch := m.galleryCh
	return func() tea.Msg {
		select {
		case refs := <-ch:
			return galleryChangedMsg(refs)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) refresh() {
	m.snap = m.engine.Session().Snapshot()
}

func (m *Model) setGallery(refs []models.ImageReference) {
	m.gallery = append([]models.ImageReference{}, refs...)
	m.galleryList.SetItems(imageItems("Image", m.gallery))
}

func (m *Model) selected() (models.ImageReference, bool) {
	l := m.matchList
	if m.focus == FocusGallery {
		l = m.galleryList
	}
	if item, ok := l.SelectedItem().(imageItem); ok {
		return item.ref, true
	}
	return "", false
}

// View renders the page: the modal when open, otherwise the full composition.
func (m *Model) View() string {
	if m.modal.IsOpen() {
		return m.modal.View()
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(appTitle))
	b.WriteString("\n")

	if m.snap.HasReference() {
		fmt.Fprintf(&b, "Reference: %s\n", m.snap.Reference)
	} else {
		b.WriteString("Reference: " + styles.help.Render("none, press r to upload") + "\n")
	}

	toggle := "show"
	if m.showGallery {
		toggle = "hide"
	}
	fmt.Fprintf(&b, "Gallery: %d images %s\n", len(m.gallery), styles.help.Render("(v to "+toggle+")"))
	if m.showGallery {
		if len(m.gallery) == 0 {
			b.WriteString(styles.help.Render("Gallery is empty.") + "\n")
		} else {
			b.WriteString(m.galleryList.View() + "\n")
		}
	}

	b.WriteString("\n" + styles.section.Render("Match Images") + "\n")
	if m.snap.HasElapsed {
		fmt.Fprintf(&b, "Api Request Took: %.2f ms\n", m.snap.ElapsedMS)
	}
	if m.snap.Loading() {
		b.WriteString(m.spinner.View() + " Matching...\n")
	}
	if m.snap.Error != "" {
		b.WriteString(styles.err.Render(m.snap.Error) + "\n")
	}

	switch {
	case len(m.snap.Matches) > 0:
		b.WriteString("\n" + m.matchList.View() + "\n")
		b.WriteString(styles.ok.Render("Download All") + styles.help.Render(" (d)") + "\n")
	case !m.snap.Loading() && m.snap.Error == "":
		b.WriteString(noMatchesText + "\n")
	}

	if m.prompting {
		b.WriteString("\n" + m.input.View() + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + styles.warn.Render(m.status) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}
