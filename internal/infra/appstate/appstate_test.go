package appstate_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/asyncrt/internal/infra/appstate"
	"github.com/skillcoder/asyncrt/internal/infra/pinger"
	"github.com/skillcoder/asyncrt/internal/infra/shutdown/mocks"
)

type staticPinger struct {
	err error
}

func (staticPinger) Name() string {
	return "static"
}

func (p staticPinger) Ping(context.Context) error {
	return p.err
}

func newAppState(t *testing.T) (*appstate.AppState, *pinger.Service) {
	t.Helper()

	logger := slog.Default()
	quit := make(chan os.Signal, 1)
	pingerService := pinger.New(logger, 10*time.Millisecond)

	return appstate.New(logger, time.Now(), quit, pingerService), pingerService
}

func TestAppState_StateTransitions(t *testing.T) {
	t.Parallel()

	t.Run("init to starting", func(t *testing.T) {
		t.Parallel()

		s, _ := newAppState(t)
		require.NoError(t, s.SetStarting(t.Context()))
		require.Equal(t, appstate.StateStarting, s.GetState())
	})

	t.Run("starting to running", func(t *testing.T) {
		t.Parallel()

		s, _ := newAppState(t)
		require.NoError(t, s.SetStarting(t.Context()))
		require.NoError(t, s.SetRunning(t.Context()))
		require.Equal(t, appstate.StateRunning, s.GetState())
	})

	t.Run("running to terminating", func(t *testing.T) {
		t.Parallel()

		s, _ := newAppState(t)
		require.NoError(t, s.SetStarting(t.Context()))
		require.NoError(t, s.SetRunning(t.Context()))
		require.NoError(t, s.SetTerminating(t.Context()))
		require.Equal(t, appstate.StateTerminating, s.GetState())
	})

	t.Run("invalid: init to running", func(t *testing.T) {
		t.Parallel()

		s, _ := newAppState(t)
		err := s.SetRunning(t.Context())
		require.ErrorIs(t, err, appstate.ErrInvalidStateTransition)
		require.Equal(t, appstate.StateInit, s.GetState())
	})

	t.Run("invalid: terminated cannot change", func(t *testing.T) {
		t.Parallel()

		s, _ := newAppState(t)
		require.NoError(t, s.SetStarting(t.Context()))
		require.NoError(t, s.SetRunning(t.Context()))
		require.NoError(t, s.Shutdown(t.Context()))
		require.Equal(t, appstate.StateTerminated, s.GetState())

		require.Error(t, s.SetStarting(t.Context()))
		require.ErrorIs(t, s.SetTerminating(t.Context()), appstate.ErrAlreadyTerminated)
		require.Equal(t, appstate.StateTerminated, s.GetState())
	})
}

func TestAppState_Readiness(t *testing.T) {
	t.Parallel()

	t.Run("ready once running and pingers pass", func(t *testing.T) {
		t.Parallel()

		s, pingerService := newAppState(t)
		require.NoError(t, s.RegisterPinger(staticPinger{}))

		require.False(t, s.IsHealthy())
		require.False(t, s.IsReady())

		require.NoError(t, s.SetStarting(t.Context()))
		require.NoError(t, pingerService.Start(t.Context()))
		<-pingerService.Ready()
		t.Cleanup(func() { require.NoError(t, pingerService.Shutdown(context.Background())) })

		require.False(t, s.IsReady())

		require.NoError(t, s.SetRunning(t.Context()))
		require.True(t, s.IsHealthy())
		require.True(t, s.IsReady())
		require.Len(t, s.GetAllStats(), 1)
	})

	t.Run("failing pinger keeps not ready", func(t *testing.T) {
		t.Parallel()

		s, pingerService := newAppState(t)
		require.NoError(t, s.RegisterPinger(staticPinger{err: errors.New("closing")}))
		require.NoError(t, pingerService.Start(t.Context()))
		<-pingerService.Ready()
		t.Cleanup(func() { require.NoError(t, pingerService.Shutdown(context.Background())) })

		require.NoError(t, s.SetStarting(t.Context()))
		require.NoError(t, s.SetRunning(t.Context()))
		require.True(t, s.IsHealthy())
		require.False(t, s.IsReady())
	})
}

func TestAppState_GetUptime(t *testing.T) {
	t.Parallel()

	s, _ := newAppState(t)

	time.Sleep(10 * time.Millisecond)

	uptime := s.GetUptime()
	require.GreaterOrEqual(t, uptime, 10*time.Millisecond)
	require.False(t, s.GetStartTime().IsZero())
}

func TestAppState_Shutdown(t *testing.T) {
	t.Parallel()

	t.Run("releases in reverse order and is idempotent", func(t *testing.T) {
		t.Parallel()

		s, _ := newAppState(t)

		var order []string

		for _, name := range []string{"first", "second"} {
			m := mocks.NewMockShutdowner(t)
			m.EXPECT().Name().Return(name).Maybe()
			m.EXPECT().Shutdown(context.Background()).RunAndReturn(func(context.Context) error {
				order = append(order, name)

				return nil
			}).Once()

			require.NoError(t, s.RegisterShutdowner(m))
		}

		require.NoError(t, s.Shutdown(context.Background()))
		require.Equal(t, []string{"second", "first"}, order)
		require.Equal(t, appstate.StateTerminated, s.GetState())

		require.NoError(t, s.Shutdown(context.Background()))
	})

	t.Run("failure is returned and still terminates", func(t *testing.T) {
		t.Parallel()

		s, _ := newAppState(t)

		m := mocks.NewMockShutdowner(t)
		m.EXPECT().Name().Return("broken").Maybe()
		m.EXPECT().Shutdown(context.Background()).Return(errors.New("boom")).Once()
		require.NoError(t, s.RegisterShutdowner(m))

		err := s.Shutdown(context.Background())
		require.ErrorContains(t, err, "shutdown broken")
		require.Equal(t, appstate.StateTerminated, s.GetState())
	})

	t.Run("register after shutdown", func(t *testing.T) {
		t.Parallel()

		s, _ := newAppState(t)
		require.NoError(t, s.Shutdown(t.Context()))

		m := mocks.NewMockShutdowner(t)
		m.EXPECT().Name().Return("late").Maybe()

		require.ErrorIs(t, s.RegisterShutdowner(m), appstate.ErrAlreadyTerminated)
	})
}
