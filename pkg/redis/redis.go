package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrSnapshotNotFound = errors.New("snapshot not cached")

// IRedis caches the inventory snapshot an open assistant session dispatches
// against. The cache entry lives only while the session is open.
type IRedis interface {
	SetSnapshot(ctx context.Context, userID string, payload []byte, expiration time.Duration) error
	GetSnapshot(ctx context.Context, userID string) ([]byte, error)
	DeleteSnapshot(ctx context.Context, userID string) error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func snapshotKey(userID string) string {
	return fmt.Sprintf("assistant:snapshot:%s", userID)
}

func (r *redisClient) SetSnapshot(ctx context.Context, userID string, payload []byte, expiration time.Duration) error {
	if err := r.client.Set(ctx, snapshotKey(userID), payload, expiration).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error caching snapshot for user %s: %v", userID, err))
		return err
	}
	return nil
}

func (r *redisClient) GetSnapshot(ctx context.Context, userID string) ([]byte, error) {
	payload, err := r.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		logrus.Error(fmt.Sprintf("Error reading snapshot for user %s: %v", userID, err))
		return nil, err
	}
	return payload, nil
}

func (r *redisClient) DeleteSnapshot(ctx context.Context, userID string) error {
	return r.client.Del(ctx, snapshotKey(userID)).Err()
}
