package driven

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPromptStore struct {
	prompts map[string]string
}

func (s *stubPromptStore) Load(name string) (string, error) {
	if p, ok := s.prompts[name]; ok {
		return p, nil
	}
	return "", errors.New("not found")
}

func (s *stubPromptStore) Reload() {}

func TestDefaultPrompts_Placeholders(t *testing.T) {
	tests := []struct {
		name string
		verb []string
	}{
		{PromptDecompose, []string{"%d", "%s"}},
		{PromptSearch, []string{"%s"}},
		{PromptSynthesise, []string{"%s", "%s"}},
		{PromptAskSystem, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, ok := DefaultPrompts[tt.name]
			assert.True(t, ok)
			assert.Equal(t, len(tt.verb), strings.Count(prompt, "%"), "placeholder count")
			for _, v := range tt.verb {
				assert.Contains(t, prompt, v)
			}
		})
	}
}

func TestResolvePrompt(t *testing.T) {
	store := &stubPromptStore{prompts: map[string]string{PromptSearch: "custom %s"}}

	assert.Equal(t, "custom %s", ResolvePrompt(store, PromptSearch))
	assert.Equal(t, DefaultPrompts[PromptDecompose], ResolvePrompt(store, PromptDecompose))
	assert.Equal(t, DefaultPrompts[PromptSearch], ResolvePrompt(nil, PromptSearch))
	assert.Empty(t, ResolvePrompt(nil, "unknown"))
}
