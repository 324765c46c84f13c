package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/kwdl/internal/tasks"
)

var (
	_ list.Item = lineItem{}
)

// lineItem wraps [tasks.Line] to implement [list.Item].
type lineItem struct {
	line tasks.Line
}

func (i lineItem) FilterValue() string { return i.line.Title }
func (i lineItem) Title() string       { return i.line.Title }
func (i lineItem) Description() string { return fmt.Sprintf("line %d", i.line.Index+1) }

func lineItems(lines []tasks.Line) []list.Item {
	items := make([]list.Item, len(lines))
	for i, l := range lines {
		items[i] = lineItem{line: l}
	}
	return items
}
