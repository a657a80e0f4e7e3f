package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты RedisStore:
// - поднимают реальный Redis через testcontainers-go (образ redis:7-alpine);
// - прогоняют общий контракт Store;
// - проверяют, что конкурентные Update не теряют записи (WATCH/MULTI).
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/session -run Redis -v -race -count=1

func startRedis(t *testing.T) (string, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "6379/tcp")

	cleanup := func() { _ = c.Terminate(context.Background()) }
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port()), cleanup
}

func TestIntegration_RedisStore_Contract(t *testing.T) {
	url, cleanup := startRedis(t)
	defer cleanup()

	st, err := NewRedisStore(context.Background(), url, "", "contract")
	require.NoError(t, err)
	defer st.Close()

	storeContract(t, st)
}

func TestIntegration_RedisStore_ProfilesIsolated(t *testing.T) {
	url, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()
	a, err := NewRedisStore(ctx, url, "test:", "a")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewRedisStore(ctx, url, "test:", "b")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set(ctx, Credentials{Access: "x", Refresh: "y", Role: RoleStudent}))

	got, err := b.Get(ctx)
	require.NoError(t, err)
	require.True(t, got.Empty())
}

func TestIntegration_RedisStore_ConcurrentUpdate(t *testing.T) {
	url, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()
	st, err := NewRedisStore(ctx, url, "", "concurrent")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Set(ctx, Credentials{Access: "a", Refresh: "r", Role: RoleFaculty}))

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- st.Update(ctx, func(c *Credentials) error {
				c.Access = fmt.Sprintf("a-%d", i)
				c.Refresh = fmt.Sprintf("r-%d", i)
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ErrConcurrentUpdate)
		}
	}

	got, err := st.Get(ctx)
	require.NoError(t, err)
	// Access и Refresh всегда из одной записи.
	require.Equal(t, "r"+got.Access[1:], got.Refresh)
	require.Equal(t, RoleFaculty, got.Role)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedisStore(ctx, "redis://127.0.0.1:1/0", "", "")
	require.Error(t, err)
}
