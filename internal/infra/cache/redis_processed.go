package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dcastanera/matriculabus/internal/relay"
)

// processedTTL limita cuánto se recuerda un evento aplicado. Más allá de
// esta ventana una redelivery ya no es plausible.
const processedTTL = 7 * 24 * time.Hour

// RedisProcessedStore implementa relay.ProcessedStore sobre Redis. SETNX da
// la semántica apply-at-most-once también cuando hay varias réplicas del
// consumidor en el mismo grupo.
type RedisProcessedStore struct {
	client *redis.Client
}

func NewRedisProcessedStore(client *redis.Client) *RedisProcessedStore {
	return &RedisProcessedStore{client: client}
}

func (s *RedisProcessedStore) MarkProcessed(ctx context.Context, eventType string, userID int64, ts time.Time) (bool, error) {
	key := "processed:" + relay.ProcessedKey(eventType, userID, ts)

	ok, err := s.client.SetNX(ctx, key, 1, processedTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Verificación estática
var _ relay.ProcessedStore = (*RedisProcessedStore)(nil)
