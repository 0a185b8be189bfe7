package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServePageReturnsBindFailure(t *testing.T) {
	t.Setenv("TZ", "")

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := validConfig()
	cfg.port = taken.Addr().(*net.TCPAddr).Port

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = ServePage(ctx, cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to serve")
	assert.NoError(t, ctx.Err(), "the bind failure must end ServePage before the context does")
}

func TestServePageStopsOnCancel(t *testing.T) {
	t.Setenv("TZ", "")

	free, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := free.Addr().(*net.TCPAddr).Port
	require.NoError(t, free.Close())

	cfg := validConfig()
	cfg.port = port

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, ServePage(ctx, cfg, nil))
}
