package redislock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/internal/infrastructure/redislock"
)

func setupLocker(t *testing.T) (*redislock.RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	l, err := redislock.New("redis://"+s.Addr(), time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, s
}

func TestRedisLocker_Exclusivo(t *testing.T) {
	l, _ := setupLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "bom:1:42")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "bom:1:42")
	assert.True(t, errors.Is(err, domain.ErrLocked), "segunda toma debe fallar")

	_, err = l.Lock(ctx, "bom:1:43")
	assert.NoError(t, err, "otra distinta no está bloqueada")

	unlock()
	unlock2, err := l.Lock(ctx, "bom:1:42")
	require.NoError(t, err, "tras liberar se puede volver a tomar")
	unlock2()
}

func TestRedisLocker_ExpiraPorTTL(t *testing.T) {
	l, s := setupLocker(t)
	ctx := context.Background()

	_, err := l.Lock(ctx, "bom:1:7")
	require.NoError(t, err)
	assert.True(t, s.Exists("lock:bom:1:7"))

	s.FastForward(2 * time.Minute)
	_, err = l.Lock(ctx, "bom:1:7")
	assert.NoError(t, err)
}

func TestRedisLocker_NoLiberaTokenAjeno(t *testing.T) {
	l, s := setupLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "bom:1:9")
	require.NoError(t, err)

	// Otro proceso tomó la clave después de que expiró la nuestra.
	s.FastForward(2 * time.Minute)
	require.NoError(t, s.Set("lock:bom:1:9", "otro-token"))

	unlock()
	got, err := s.Get("lock:bom:1:9")
	require.NoError(t, err)
	assert.Equal(t, "otro-token", got)
}

func TestNew_URLInvalida(t *testing.T) {
	_, err := redislock.New("::no-es-url", time.Second, nil)
	assert.Error(t, err)
}

func TestLocal(t *testing.T) {
	l := redislock.NewLocal()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	_, err = l.Lock(ctx, "k")
	assert.True(t, errors.Is(err, domain.ErrLocked))

	unlock()
	unlock() // idempotente
	_, err = l.Lock(ctx, "k")
	assert.NoError(t, err)
}
