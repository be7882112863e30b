package closehook_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skillcoder/asyncrt/internal/infra/future"
	"github.com/skillcoder/asyncrt/internal/infra/shutdown"
	shutdownmocks "github.com/skillcoder/asyncrt/internal/infra/shutdown/mocks"
	"github.com/skillcoder/asyncrt/internal/logic/closehook"
	"github.com/skillcoder/asyncrt/internal/logic/closehook/mocks"
)

const awaitTimeout = 2 * time.Second

func awaitClose(t *testing.T, f *future.Future[struct{}]) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), awaitTimeout)
	defer cancel()

	_, err := f.Await(ctx)
	require.NoError(t, err)
}

func countingHook(counter *atomic.Int32) closehook.Hook {
	return closehook.HookFunc(func(completion *closehook.Completion) {
		counter.Add(1)
		completion.Complete(struct{}{})
	})
}

func TestCoordinator_Close(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("no hooks completes", func(t *testing.T) {
		t.Parallel()

		c := closehook.New(logger)

		awaitClose(t, c.Close())
	})

	t.Run("two hooks each called once", func(t *testing.T) {
		t.Parallel()

		var closed atomic.Int32

		c := closehook.New(logger)

		_, err := c.AddHook(countingHook(&closed))
		require.NoError(t, err)

		_, err = c.AddHook(countingHook(&closed))
		require.NoError(t, err)

		awaitClose(t, c.Close())
		require.Equal(t, int32(2), closed.Load())
	})

	t.Run("first hook panics before completing", func(t *testing.T) {
		t.Parallel()

		var closed atomic.Int32

		hook := closehook.HookFunc(func(completion *closehook.Completion) {
			if closed.Add(1) == 1 {
				panic("boom")
			}

			completion.Complete(struct{}{})
		})

		c := closehook.New(logger)

		_, err := c.AddHook(hook)
		require.NoError(t, err)

		_, err = c.AddHook(hook)
		require.NoError(t, err)

		awaitClose(t, c.Close())
		require.Equal(t, int32(2), closed.Load())
	})

	t.Run("hook panics after completing", func(t *testing.T) {
		t.Parallel()

		var closed atomic.Int32

		hook := closehook.HookFunc(func(completion *closehook.Completion) {
			if closed.Add(1) == 1 {
				completion.Complete(struct{}{})
				panic("boom")
			}

			completion.Complete(struct{}{})
		})

		c := closehook.New(logger)

		_, err := c.AddHook(hook)
		require.NoError(t, err)

		_, err = c.AddHook(hook)
		require.NoError(t, err)

		var resolved, succeeded atomic.Int32

		f := c.Close()
		f.OnComplete(func(res future.Result[struct{}]) {
			resolved.Add(1)

			if res.Succeeded() {
				succeeded.Add(1)
			}
		})

		awaitClose(t, f)
		require.Equal(t, int32(2), closed.Load())
		require.Eventually(t, func() bool { return resolved.Load() == 1 }, time.Second, time.Millisecond)
		require.Equal(t, int32(1), succeeded.Load())
	})

	t.Run("failed completion does not fail aggregate", func(t *testing.T) {
		t.Parallel()

		m := mocks.NewMockHook(t)
		m.EXPECT().Close(mock.Anything).
			Run(func(completion *future.Promise[struct{}]) {
				completion.Fail(errors.New("cannot close"))
			}).
			Once()

		c := closehook.New(logger)

		_, err := c.AddHook(m)
		require.NoError(t, err)

		awaitClose(t, c.Close())
	})

	t.Run("double completion is ignored", func(t *testing.T) {
		t.Parallel()

		var second atomic.Bool

		m := mocks.NewMockHook(t)
		m.EXPECT().Close(mock.Anything).
			Run(func(completion *future.Promise[struct{}]) {
				completion.Complete(struct{}{})
				second.Store(completion.Fail(errors.New("late")))
			}).
			Once()

		c := closehook.New(logger)

		_, err := c.AddHook(m)
		require.NoError(t, err)

		awaitClose(t, c.Close())
		require.False(t, second.Load())
	})

	t.Run("asynchronous completion from another goroutine", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})

		var closed atomic.Int32

		async := closehook.HookFunc(func(completion *closehook.Completion) {
			go func() {
				<-release
				closed.Add(1)
				completion.Complete(struct{}{})
			}()
		})

		c := closehook.New(logger)

		_, err := c.AddHook(async)
		require.NoError(t, err)

		_, err = c.AddHook(countingHook(&closed))
		require.NoError(t, err)

		f := c.Close()

		select {
		case <-f.Done():
			t.Fatal("close completed before async hook")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)

		awaitClose(t, f)
		require.Equal(t, int32(2), closed.Load())
	})

	t.Run("concurrent close shares one execution", func(t *testing.T) {
		t.Parallel()

		var closed atomic.Int32

		c := closehook.New(logger)

		for range 3 {
			_, err := c.AddHook(countingHook(&closed))
			require.NoError(t, err)
		}

		const callers = 16

		futures := make([]*future.Future[struct{}], callers)

		var wg sync.WaitGroup

		wg.Add(callers)

		for i := range callers {
			go func() {
				defer wg.Done()

				futures[i] = c.Close()
			}()
		}

		wg.Wait()

		for _, f := range futures {
			require.Same(t, futures[0], f)
			awaitClose(t, f)
		}

		require.Equal(t, int32(3), closed.Load())
	})

	t.Run("hooks invoked in registration order", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			order []int
		)

		c := closehook.New(logger)

		for i := range 5 {
			_, err := c.AddHook(closehook.HookFunc(func(completion *closehook.Completion) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()

				completion.Complete(struct{}{})
			}))
			require.NoError(t, err)
		}

		awaitClose(t, c.Close())
		require.Equal(t, []int{0, 1, 2, 3, 4}, order)
	})
}

func TestCoordinator_Internals(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("released after hooks in reverse order", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			order []string
		)

		record := func(name string) {
			mu.Lock()
			defer mu.Unlock()

			order = append(order, name)
		}

		first := shutdownmocks.NewMockShutdowner(t)
		first.EXPECT().Name().Return("first").Once()
		first.EXPECT().Shutdown(mock.Anything).
			Run(func(context.Context) { record("first") }).
			Return(nil).Once()

		second := shutdownmocks.NewMockShutdowner(t)
		second.EXPECT().Name().Return("second").Once()
		second.EXPECT().Shutdown(mock.Anything).
			Run(func(context.Context) { record("second") }).
			Return(nil).Once()

		c := closehook.New(logger, first, second)

		_, err := c.AddHook(closehook.HookFunc(func(completion *closehook.Completion) {
			record("hook")
			completion.Complete(struct{}{})
		}))
		require.NoError(t, err)

		awaitClose(t, c.Close())
		require.Equal(t, []string{"hook", "second", "first"}, order)
	})

	t.Run("release failure does not fail aggregate", func(t *testing.T) {
		t.Parallel()

		internal := shutdownmocks.NewMockShutdowner(t)
		internal.EXPECT().Name().Return("pool").Once()
		internal.EXPECT().Shutdown(mock.Anything).Return(errors.New("stuck")).Once()

		c := closehook.New(logger, []shutdown.Shutdowner{internal}...)

		awaitClose(t, c.Close())
	})
}

func TestCoordinator_Registration(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("ids are monotonic", func(t *testing.T) {
		t.Parallel()

		var closed atomic.Int32

		c := closehook.New(logger)

		id1, err := c.AddHook(countingHook(&closed))
		require.NoError(t, err)

		id2, err := c.AddHook(countingHook(&closed))
		require.NoError(t, err)

		require.Greater(t, id2, id1)
		require.Equal(t, 2, c.Len())
	})

	t.Run("nil hook rejected", func(t *testing.T) {
		t.Parallel()

		c := closehook.New(logger)

		_, err := c.AddHook(nil)
		require.ErrorIs(t, err, closehook.ErrNilHook)
	})

	t.Run("add after close rejected", func(t *testing.T) {
		t.Parallel()

		var closed atomic.Int32

		c := closehook.New(logger)
		f := c.Close()

		_, err := c.AddHook(countingHook(&closed))
		require.ErrorIs(t, err, closehook.ErrShutdownStarted)
		require.True(t, c.IsClosing())

		awaitClose(t, f)
		require.Equal(t, int32(0), closed.Load())
	})

	t.Run("removed hook is not invoked", func(t *testing.T) {
		t.Parallel()

		var closed atomic.Int32

		c := closehook.New(logger)

		id, err := c.AddHook(countingHook(&closed))
		require.NoError(t, err)

		require.True(t, c.RemoveHook(id))
		require.False(t, c.RemoveHook(id))
		require.Equal(t, 0, c.Len())

		awaitClose(t, c.Close())
		require.Equal(t, int32(0), closed.Load())
	})

	t.Run("remove after close is a no-op", func(t *testing.T) {
		t.Parallel()

		var closed atomic.Int32

		c := closehook.New(logger)

		id, err := c.AddHook(countingHook(&closed))
		require.NoError(t, err)

		f := c.Close()

		require.False(t, c.RemoveHook(id))

		awaitClose(t, f)
		require.Equal(t, int32(1), closed.Load())
	})

	t.Run("close future resolves without starting close", func(t *testing.T) {
		t.Parallel()

		c := closehook.New(logger)

		require.False(t, c.CloseFuture().IsComplete())
		require.False(t, c.IsClosing())

		awaitClose(t, c.Close())
		require.True(t, c.CloseFuture().IsComplete())
	})
}
