// Package redislock implementa el candado por distinta: SET NX PX con token y liberación
// compare-and-delete en Redis, o un candado en proceso cuando Redis no está configurado.
package redislock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/bom-api/internal/domain"
	"github.com/jhoicas/bom-api/pkg/logger"
)

// releaseScript borra la clave solo si sigue teniendo nuestro token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker candado distribuido.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logger.Logger
}

// New conecta a Redis y verifica la conexión.
func New(redisURL string, ttl time.Duration, log *logger.Logger) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewWithClient(client, ttl, log), nil
}

// NewWithClient construye el candado con un cliente existente.
func NewWithClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{client: client, prefix: "lock:", ttl: ttl, log: log}
}

// Lock toma la clave o devuelve domain.ErrLocked. El candado expira solo tras ttl.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	k := l.prefix + key
	ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("tomar candado %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrLocked)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{k}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el candado; expirará por ttl")
		}
	}, nil
}

// Close cierra la conexión.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// Ping comprueba que Redis responde.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Local candado en proceso para una sola instancia.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal crea el candado en proceso.
func NewLocal() *Local {
	return &Local{held: map[string]struct{}{}}
}

// Lock toma la clave o devuelve domain.ErrLocked.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrLocked)
	}
	l.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
