package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// storeContract — общие проверки для всех реализаций Store.
func storeContract(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	// Пустое хранилище — нулевое значение без ошибки.
	got, err := st.Get(ctx)
	require.NoError(t, err)
	require.True(t, got.Empty())

	require.NoError(t, st.Set(ctx, Credentials{Access: "a1", Refresh: "r1", Role: "Faculty"}))
	got, err = st.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, Credentials{Access: "a1", Refresh: "r1", Role: RoleFaculty}, got)

	require.NoError(t, st.Update(ctx, func(c *Credentials) error {
		c.Access = "a2"
		return nil
	}))
	got, err = st.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "a2", got.Access)
	require.Equal(t, "r1", got.Refresh)

	// Ошибка fn не меняет хранилище.
	boom := errors.New("boom")
	err = st.Update(ctx, func(c *Credentials) error {
		c.Access = "lost"
		return boom
	})
	require.ErrorIs(t, err, boom)
	got, err = st.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "a2", got.Access)

	require.NoError(t, st.Clear(ctx))
	got, err = st.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, Credentials{}, got)

	// Повторная очистка — не ошибка.
	require.NoError(t, st.Clear(ctx))
}

func TestMemoryStore_Contract(t *testing.T) {
	t.Parallel()
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_InitialNormalized(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore(Credentials{Access: "a", Refresh: "r", Role: "STUDENT"})
	got, err := st.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, RoleStudent, got.Role)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := NewMemoryStore()
	_, err := st.Get(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, st.Set(ctx, Credentials{Access: "a"}), context.Canceled)
	require.ErrorIs(t, st.Clear(ctx), context.Canceled)
}

// Конкурентный читатель не должен увидеть тройку из разных записей.
func TestMemoryStore_NoTornReads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemoryStore(Credentials{Access: "a0", Refresh: "r0", Role: RoleStudent})

	pairs := map[string]string{"a0": "r0", "a1": "r1", "a2": "r2"}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			n := []string{"0", "1", "2"}[i%3]
			_ = st.Set(ctx, Credentials{Access: "a" + n, Refresh: "r" + n, Role: RoleStudent})
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}

		c, err := st.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, pairs[c.Access], c.Refresh)
	}
}
