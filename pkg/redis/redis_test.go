package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Options(t *testing.T) {
	cfg := Config{
		URL:          "redis://:secret@localhost:6380/2",
		ReadTimeout:  time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  3 * time.Second,
		PoolSize:     7,
	}

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, time.Second, opts.ReadTimeout)
	assert.Equal(t, 2*time.Second, opts.WriteTimeout)
	assert.Equal(t, 3*time.Second, opts.DialTimeout)
	assert.Equal(t, 7, opts.PoolSize)
}

func TestConfig_OptionsInvalidURL(t *testing.T) {
	cfg := Config{URL: "http://nope"}
	_, err := cfg.Options()
	assert.Error(t, err)
}
