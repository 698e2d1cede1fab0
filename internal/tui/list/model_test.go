package listview

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderInt(item int, selected bool) string {
	if selected {
		return fmt.Sprintf("> %d", item)
	}
	return fmt.Sprintf("  %d", item)
}

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func TestNavigation(t *testing.T) {
	m := NewVirtualListModel(ints(50), 10, 40, renderInt)

	m.Update(key(tea.KeyDown))
	m.Update(runes('j'))
	assert.Equal(t, 2, m.Selected())

	m.Update(runes('k'))
	assert.Equal(t, 1, m.Selected())

	m.Update(key(tea.KeyUp))
	m.Update(key(tea.KeyUp))
	assert.Equal(t, 0, m.Selected(), "the cursor stops at the top")

	m.Update(key(tea.KeyPgDown))
	assert.Equal(t, 10, m.Selected())

	m.Update(key(tea.KeyEnd))
	assert.Equal(t, 49, m.Selected())
	assert.True(t, m.AtBottom())
	assert.Equal(t, 50, m.VisibleTo())
	assert.Equal(t, 40, m.VisibleFrom())

	m.Update(key(tea.KeyDown))
	assert.Equal(t, 49, m.Selected(), "the cursor stops at the bottom")

	m.Update(key(tea.KeyHome))
	assert.Equal(t, 0, m.Selected())
	assert.False(t, m.AtBottom())
}

func TestSetItems_KeepsSelection(t *testing.T) {
	m := NewVirtualListModel(ints(10), 5, 40, renderInt)
	m.SetSelected(9)
	require.True(t, m.AtBottom())

	m.SetItems(ints(20))
	assert.Equal(t, 9, m.Selected())
	assert.False(t, m.AtBottom(), "appending moves the bottom")

	m.SetItems(ints(3))
	assert.Equal(t, 2, m.Selected(), "shrinking clamps the cursor")

	m.SetItems(nil)
	assert.Equal(t, 0, m.Selected())
	assert.Nil(t, m.SelectedItem())
	assert.Empty(t, m.View())
}

func TestView(t *testing.T) {
	m := NewVirtualListModel(ints(100), 4, 40, renderInt)
	m.SetSelected(50)

	lines := strings.Split(m.View(), "\n")
	assert.Len(t, lines, 4+2*defaultBufferSize)
	assert.Contains(t, m.View(), "> 50")
	assert.NotContains(t, m.View(), "  0\n")

	item := m.SelectedItem()
	require.NotNil(t, item)
	assert.Equal(t, 50, *item)
}

func TestResize(t *testing.T) {
	m := NewVirtualListModel(ints(30), 10, 40, renderInt)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	assert.Equal(t, 100, m.Width())
	assert.Equal(t, 20, m.Height())
	assert.Equal(t, 20, m.VisibleTo())
}
