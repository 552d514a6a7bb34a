package adapter

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	BaseSQLAdapter
}

func (s *stubAdapter) Connect(_ context.Context, cfg Config) error {
	s.Cfg = cfg
	return nil
}

func TestRegistry(t *testing.T) {
	Register("stub", func(logger *slog.Logger) Adapter {
		return &stubAdapter{BaseSQLAdapter: BaseSQLAdapter{Logger: logger}}
	})

	factory, ok := Get("stub")
	require.True(t, ok)
	require.NotNil(t, factory)

	_, ok = Get("nonexistent")
	assert.False(t, ok)

	assert.Contains(t, Registered(), "stub")
}

func TestNew(t *testing.T) {
	Register("stub", func(logger *slog.Logger) Adapter {
		return &stubAdapter{BaseSQLAdapter: BaseSQLAdapter{Logger: logger}}
	})

	a, err := New(Config{Type: "stub"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, a)

	_, err = New(Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapter type not specified")

	_, err = New(Config{Type: "bogus"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown adapter type "bogus"`)
}
