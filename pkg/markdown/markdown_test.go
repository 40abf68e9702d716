package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveLinks(t *testing.T) {
	got := RemoveLinks("see [the docs](https://example.com/a) or https://example.com/b now")
	assert.Equal(t, "see the docs or  now", got)
}

func TestToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading and emphasis", "# Cells\n\nThe *mitochondria* is the **powerhouse**.", "Cells The mitochondria is the powerhouse."},
		{"list", "- one\n- two", "one two"},
		{"entities", "a & b", "a & b"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToText(tt.in))
		})
	}
}
