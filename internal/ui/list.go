package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/imgmatch/internal/models"
)

var _ list.Item = imageItem{}

// imageItem wraps [models.ImageReference] to implement [list.Item].
type imageItem struct {
	position int
	ref      models.ImageReference
	label    string
}

func (i imageItem) FilterValue() string { return string(i.ref) }
func (i imageItem) Title() string       { return fmt.Sprintf("%s %d", i.label, i.position) }
func (i imageItem) Description() string { return string(i.ref) }

func imageItems(label string, refs []models.ImageReference) []list.Item {
	items := make([]list.Item, len(refs))
	for i, ref := range refs {
		items[i] = imageItem{position: i + 1, ref: ref, label: label}
	}
	return items
}

func newImageList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	return l
}
