package engine_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skillcoder/asyncrt/internal/logic/engine"
)

// Not parallel: goleak.IgnoreCurrent must not see goroutines of other tests.
func TestEngine_CloseReleasesSocketGoroutines(t *testing.T) {
	baseline := goleak.IgnoreCurrent()

	e := engine.New(slog.Default(), engine.Options{Name: t.Name(), WorkerPoolSize: 1})

	srv := engine.NewNetServer(e, echoHandler())
	require.NoError(t, srv.Listen(t.Context(), "127.0.0.1:0"))

	client, err := engine.NewNetClient(e, engine.NetClientOptions{})
	require.NoError(t, err)

	conn, err := client.Connect(t.Context(), srv.Addr().String())
	require.NoError(t, err)

	readDone := make(chan error, 1)

	go func() {
		_, err := conn.Read(make([]byte, 1))
		readDone <- err
	}()

	require.Error(t, goleak.Find(baseline), "goroutines parked on sockets are reported")

	ctx, cancel := context.WithTimeout(t.Context(), awaitTimeout)
	defer cancel()

	require.NoError(t, e.Shutdown(ctx))
	require.Error(t, <-readDone)

	require.NoError(t, goleak.Find(baseline))
}
