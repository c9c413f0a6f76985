package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAudioFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"meeting.mp3", true},
		{"Memo.M4A", true},
		{"clip.webm", true},
		{"talk.ogg", true},
		{"raw.wav", true},
		{"notes.txt", false},
		{"mp3", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAudioFile(tt.name))
		})
	}
}
