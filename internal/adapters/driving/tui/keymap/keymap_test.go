package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"q", "ctrl+c"}},
		{"help", km.Help, []string{"?"}},
		{"back", km.Back, []string{"esc"}},
		{"submit", km.Submit, []string{"enter"}},
		{"up", km.Up, []string{"up", "k"}},
		{"down", km.Down, []string{"down", "j"}},
		{"select", km.Select, []string{"enter"}},
		{"cancel", km.Cancel, []string{"ctrl+x"}},
		{"new query", km.NewQuery, []string{"n"}},
		{"delete", km.Delete, []string{"d"}},
		{"page up", km.PageUp, []string{"pgup", "b"}},
		{"page down", km.PageDown, []string{"pgdown", "f"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.keys {
				assert.Contains(t, tt.binding.Keys(), k)
			}
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestKeyMap_HelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 2)
	assert.Contains(t, km.ResearchHelp(), km.Cancel)
	assert.Contains(t, km.ReportHelp(), km.PageDown)
	assert.Contains(t, km.ResultsHelp(), km.NewQuery)

	full := km.FullHelp()
	require.Len(t, full, 4)
	for _, group := range full {
		assert.NotEmpty(t, group)
	}
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("k", km.Up))
	assert.True(t, Matches("ctrl+x", km.Cancel))
	assert.False(t, Matches("x", km.Cancel))
	assert.False(t, Matches("", km.Quit))
}
