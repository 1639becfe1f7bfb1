package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"play", "play"},
		{"p", "play"},
		{"PLAY", "play"},
		{"Q", "queue"},
		{"list", "queue"},
		{"rm", "remove"},
		{"del", "remove"},
		{"prio", "prioritize"},
		{"top", "prioritize"},
		{"move", "prioritize"},
		{"sh", "shuffle"},
		{"mix", "shuffle"},
		{"clearq", "clearqueue"},
		{"clr", "clearqueue"},
		{"ping", "healthcheck"},
		{"status", "healthcheck"},
		{"commands", "info"},
		{"reset", "reset"},
		{"unknown", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, canonicalCommand(tt.input), "input %q", tt.input)
	}
}

func TestEveryAliasTargetsARealHandler(t *testing.T) {
	for alias, target := range aliases {
		_, ok := handlers[target]
		assert.True(t, ok, "alias %q points at missing handler %q", alias, target)
	}
}
