package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/imgmatch/internal/models"
)

func TestModalOpenClose(t *testing.T) {
	var m Modal
	if m.View() != "" {
		t.Error("closed modal should render nothing")
	}

	m.Open("https://res.example.com/a.jpg")
	if !m.IsOpen() || m.Ref() != "https://res.example.com/a.jpg" {
		t.Fatalf("expected open modal with ref, got open=%v ref=%q", m.IsOpen(), m.Ref())
	}
	if !strings.Contains(m.View(), "https://res.example.com/a.jpg") {
		t.Error("expected view to contain the reference")
	}

	m.Close()
	if m.IsOpen() {
		t.Error("expected modal to be closed")
	}
	if m.Ref() != "" {
		t.Errorf("expected ref to be cleared, got %q", m.Ref())
	}
}

func TestModalHandleClick(t *testing.T) {
	open := func() *Modal {
		m := &Modal{}
		m.SetSize(100, 30)
		m.Open("https://res.example.com/a.jpg")
		return m
	}

	t.Run("Scrim closes", func(t *testing.T) {
		m := open()
		if !m.HandleClick(0, 0) {
			t.Fatal("expected click on scrim to close")
		}
		if m.IsOpen() || m.Ref() != "" {
			t.Error("expected modal closed with cleared ref")
		}
	})

	t.Run("Content keeps it open", func(t *testing.T) {
		m := open()
		x, y, w, h := m.bounds()
		for _, p := range [][2]int{{x, y}, {x + 2, y + 3}, {x + w/2, y + h/2}, {x + w - 1, y + h - 1}} {
			if m.HandleClick(p[0], p[1]) {
				t.Fatalf("click at %v inside the box closed the modal", p)
			}
		}
		if !m.IsOpen() {
			t.Error("expected modal to stay open")
		}
	})

	t.Run("Close control", func(t *testing.T) {
		m := open()
		x, y, w, _ := m.bounds()
		if !m.HandleClick(x+w-4, y+1) {
			t.Fatal("expected click on [x] to close")
		}
		if m.IsOpen() {
			t.Error("expected modal to be closed")
		}
	})

	t.Run("Closed modal ignores clicks", func(t *testing.T) {
		m := &Modal{}
		if m.HandleClick(0, 0) {
			t.Error("closed modal should not report a close")
		}
	})
}

func TestModalBoundsCentered(t *testing.T) {
	m := &Modal{}
	m.SetSize(100, 30)
	m.Open("https://res.example.com/a.jpg")

	x, y, w, h := m.bounds()
	if x <= 0 || y <= 0 {
		t.Fatalf("expected centered box, got x=%d y=%d", x, y)
	}
	if x+w > 100 || y+h > 30 {
		t.Errorf("box %dx%d at (%d,%d) exceeds the screen", w, h, x, y)
	}

	lines := strings.Split(m.View(), "\n")
	if len(lines) != 30 {
		t.Errorf("expected the scrim to cover 30 rows, got %d", len(lines))
	}
	if !strings.Contains(lines[y+1], "[x]") {
		t.Errorf("expected close control on row %d, got %q", y+1, lines[y+1])
	}
}

func TestModalWrapsLongReference(t *testing.T) {
	m := &Modal{}
	m.SetSize(30, 20)
	ref := models.ImageReference("https://res.example.com/" + strings.Repeat("a", 80) + ".jpg")
	m.Open(ref)

	_, _, w, _ := m.bounds()
	if w > 30 {
		t.Errorf("expected box to fit a 30 column screen, got width %d", w)
	}
}

func TestModalCopyAndBrowse(t *testing.T) {
	origClip, origOpen := writeClipboard, openBrowser
	t.Cleanup(func() { writeClipboard, openBrowser = origClip, origOpen })

	var copied, opened string
	writeClipboard = func(s string) error { copied = s; return nil }
	openBrowser = func(s string) error { opened = s; return nil }

	m := &Modal{}
	if err := m.Copy(); err == nil {
		t.Error("expected error copying from a closed modal")
	}
	if err := m.Browse(); err == nil {
		t.Error("expected error browsing from a closed modal")
	}

	m.Open("https://res.example.com/a.jpg")
	if err := m.Copy(); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if err := m.Browse(); err != nil {
		t.Fatalf("Browse() error = %v", err)
	}
	if copied != "https://res.example.com/a.jpg" || opened != copied {
		t.Errorf("got copied=%q opened=%q", copied, opened)
	}

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	if err := m.Copy(); err == nil {
		t.Error("expected clipboard error to surface")
	}
}
