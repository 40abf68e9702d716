package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	tests := map[string]Environment{
		"production":  Production,
		"staging":     Staging,
		"testing":     Testing,
		"development": Development,
		"":            Development,
		"prod":        Development,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseEnvironment(in), in)
	}
}

func TestEnvironment_IsProduction(t *testing.T) {
	assert.True(t, Production.IsProduction())
	assert.False(t, Staging.IsProduction())
	assert.Equal(t, "testing", Testing.String())
}

func TestEnvironment_Decode(t *testing.T) {
	var e Environment
	assert.NoError(t, e.Decode(" Production "))
	assert.Equal(t, Production, e)

	assert.NoError(t, e.Decode("unknown"))
	assert.Equal(t, Development, e)
}
