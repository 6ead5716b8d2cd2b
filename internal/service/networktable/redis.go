package networktable

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

const (
	// RedisKeyPrefix namespaces table hashes in Redis.
	RedisKeyPrefix = "nt:"
	// DefaultRedisTimeout bounds every single table operation.
	DefaultRedisTimeout = 250 * time.Millisecond
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisInstance stores every table as a Redis hash of JSON-encoded values.
// It is the client-mode backend: the robot side hosts the Redis server.
type RedisInstance struct {
	client  *redis.Client
	timeout time.Duration
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	Timeout  time.Duration
}

// NewRedisInstance connects to Redis and verifies the connection with a PING.
func NewRedisInstance(ctx context.Context, opts RedisOptions) (*RedisInstance, error) {
	r := newRedisInstance(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(pingCtx).Err(); err != nil {
		r.client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Address, err)
	}

	return r, nil
}

func newRedisInstance(opts RedisOptions) *RedisInstance {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRedisTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
		MaxRetries:   -1,
	})
	return &RedisInstance{client: client, timeout: opts.Timeout}
}

// Table returns a handle to the named table hash.
func (r *RedisInstance) Table(name string) Table {
	return &redisTable{name: name, key: RedisKeyPrefix + name, instance: r}
}

// Tables lists the tables present in Redis in sorted order.
func (r *RedisInstance) Tables() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout*4)
	defer cancel()

	var names []string
	iter := r.client.Scan(ctx, 0, RedisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), RedisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan tables: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Publish sends one HSET per table in a single pipeline, bounded by one timeout.
func (r *RedisInstance) Publish(batch Batch) error {
	if len(batch) == 0 {
		return nil
	}

	writes := make(map[string][]interface{}, len(batch))
	for name, values := range batch {
		fields := make([]interface{}, 0, 2*len(values))
		for key, v := range values {
			encoded, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("failed to encode %s/%s: %w", name, key, err)
			}
			fields = append(fields, key, encoded)
		}
		writes[RedisKeyPrefix+name] = fields
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, fields := range writes {
			pipe.HSet(ctx, key, fields...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish %d table(s): %w", len(batch), err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisInstance) Close() error {
	return r.client.Close()
}

type redisTable struct {
	name     string
	key      string
	instance *RedisInstance
}

func (t *redisTable) Name() string {
	return t.name
}

func (t *redisTable) set(field string, v Value) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", t.name, field, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.instance.timeout)
	defer cancel()
	if err := t.instance.client.HSet(ctx, t.key, field, encoded).Err(); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", t.name, field, err)
	}
	return nil
}

func (t *redisTable) SetNumber(key string, value float64) error {
	return t.set(key, Value{Type: TypeNumber, Number: value})
}

func (t *redisTable) SetNumberArray(key string, values []float64) error {
	return t.set(key, Value{Type: TypeNumberArray, Numbers: values})
}

func (t *redisTable) SetBoolean(key string, value bool) error {
	return t.set(key, Value{Type: TypeBoolean, Boolean: value})
}

func (t *redisTable) GetNumber(key string, def float64) float64 {
	ctx, cancel := context.WithTimeout(context.Background(), t.instance.timeout)
	defer cancel()

	raw, err := t.instance.client.HGet(ctx, t.key, key).Result()
	if err != nil {
		return def
	}
	v, err := decodeValue(raw)
	if err != nil || v.Type != TypeNumber {
		return def
	}
	return v.Number
}

func (t *redisTable) Snapshot() (map[string]Value, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.instance.timeout)
	defer cancel()

	fields, err := t.instance.client.HGetAll(ctx, t.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", t.name, err)
	}

	snapshot := make(map[string]Value, len(fields))
	for field, raw := range fields {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("table %s key %s: %w", t.name, field, err)
		}
		snapshot[field] = v
	}
	return snapshot, nil
}

func decodeValue(raw string) (Value, error) {
	var v Value
	if err := json.UnmarshalFromString(raw, &v); err != nil {
		return Value{}, err
	}
	switch v.Type {
	case TypeNumber, TypeNumberArray, TypeBoolean:
		return v, nil
	}
	return Value{}, errors.Join(ErrWrongType, fmt.Errorf("unknown type %q", v.Type))
}
