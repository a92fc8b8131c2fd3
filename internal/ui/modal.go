package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
)

const (
	modalContentWidth = 56
	modalMinWidth     = 16
	modalTitle        = "Preview"
	modalClose        = "[x]"
)

var (
	writeClipboard = clipboard.WriteAll
	openBrowser    = shared.OpenBrowser
)

// Modal is the preview overlay for a single image reference.
//
// A closed modal renders nothing. When open it is centered over a scrim that fills the terminal; a click
// on the scrim or on the [x] control closes it, a click inside the box does not.
type Modal struct {
	open   bool
	ref    models.ImageReference
	width  int
	height int
}

// Open shows ref in the modal.
func (m *Modal) Open(ref models.ImageReference) {
	m.open = true
	m.ref = ref
}

// Close hides the modal and clears the reference.
func (m *Modal) Close() {
	m.open = false
	m.ref = ""
}

func (m *Modal) IsOpen() bool               { return m.open }
func (m *Modal) Ref() models.ImageReference { return m.ref }

// SetSize sets the area the scrim covers.
func (m *Modal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Copy writes the previewed reference to the system clipboard.
func (m *Modal) Copy() error {
	if !m.open {
		return fmt.Errorf("%w: nothing to copy", shared.ErrInvalidInput)
	}
	return writeClipboard(string(m.ref))
}

// Browse opens the previewed reference in the default browser.
func (m *Modal) Browse() error {
	if !m.open {
		return fmt.Errorf("%w: nothing to open", shared.ErrInvalidInput)
	}
	return openBrowser(string(m.ref))
}

// HandleClick routes a left click at (x, y) and reports whether it closed the modal.
func (m *Modal) HandleClick(x, y int) bool {
	if !m.open {
		return false
	}

	bx, by, bw, bh := m.bounds()
	if x < bx || x >= bx+bw || y < by || y >= by+bh {
		m.Close()
		return true
	}

	// header row sits under the top border; [x] ends before the right padding and border
	if y == by+1 && x >= bx+bw-2-len(modalClose) && x < bx+bw-2 {
		m.Close()
		return true
	}
	return false
}

// View renders the modal box over the scrim, or "" when closed.
func (m *Modal) View() string {
	if !m.open {
		return ""
	}

	box := m.box()
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(
		m.width, m.height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("#3C3C3C")),
	)
}

func (m *Modal) contentWidth() int {
	cw := modalContentWidth
	if m.width > 0 && m.width-4 < cw {
		cw = max(m.width-4, modalMinWidth)
	}
	return cw
}

func (m *Modal) box() string {
	cw := m.contentWidth()

	lines := []string{fmt.Sprintf("%-*s%s", cw-len(modalClose), modalTitle, modalClose), ""}
	lines = append(lines, wrap(string(m.ref), cw)...)
	lines = append(lines, "", truncate("c copy • o open • esc close", cw))

	return styles.modal.Render(strings.Join(lines, "\n"))
}

// bounds returns the box's top-left corner and size within the scrim.
func (m *Modal) bounds() (x, y, w, h int) {
	box := m.box()
	w, h = lipgloss.Width(box), lipgloss.Height(box)
	if m.width > 0 && m.height > 0 {
		x = centerOffset(m.width - w)
		y = centerOffset(m.height - h)
	}
	return x, y, w, h
}

func centerOffset(gap int) int {
	if gap <= 0 {
		return 0
	}
	return gap - int(math.Round(float64(gap)*0.5))
}

func wrap(s string, width int) []string {
	r := []rune(s)
	if len(r) == 0 {
		return []string{""}
	}

	var lines []string
	for len(r) > width {
		lines = append(lines, string(r[:width]))
		r = r[width:]
	}
	return append(lines, string(r))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
