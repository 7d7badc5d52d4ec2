package serverapp

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphql-cascade/internal/config"
)

func TestApp_LifecycleAndEndpoints(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 18321
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Logging.Level = "error"
	cfg.Logging.Format = "text"
	cfg.Observability.MetricsEnabled = true

	app, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.Logger())
	require.NotNil(t, app.Metrics())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":null}`))
		}))
	}()

	base := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	var resp *http.Response
	require.Eventually(t, func() bool {
		var getErr error
		resp, getErr = http.Get(base + "/healthz")
		return getErr == nil
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Post(base+"/graphql", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	_ = resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
