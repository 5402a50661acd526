package hub

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echo-hue-bridge/internal/adapters/output/hostenv"
	"echo-hue-bridge/internal/domain/model"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestHub_StartReachesListeningAndServesHTTP(t *testing.T) {
	port := freePort(t)
	host := hostenv.New()
	m := &model.Hub{ID: "0123456789abcdef", Port: port, IP: "127.0.0.1"}
	h := New(m, host, zerolog.Nop())

	ctx := context.Background()
	require.NoError(t, h.Start(ctx))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.Shutdown(shutdownCtx)
	}()

	state, signal := h.Status()
	assert.Equal(t, model.HubListening, state)
	assert.Equal(t, fmt.Sprintf("listening on %d", port), signal.Message)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/description.xml", port))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHub_ShutdownReachesClosed(t *testing.T) {
	port := freePort(t)
	host := hostenv.New()
	m := &model.Hub{ID: "0123456789abcdef", Port: port, IP: "127.0.0.1"}
	h := New(m, host, zerolog.Nop())

	require.NoError(t, h.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))

	state, _ := h.Status()
	assert.Equal(t, model.HubClosed, state)
}
