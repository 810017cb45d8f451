package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buntConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StoreBackend = config.BackendBunt
	c.BuntPath = ":memory:"
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCHealthAddr = "127.0.0.1:0"
	c.LogLevel = "error"
	return c
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	c := buntConfig()
	c.TableName = ""

	_, err := NewApp(context.Background(), c)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), buntConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}
