package dispatch

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/sha3"
)

// Marker records that a (message, emote) pair was already handled. Mark
// returns true only for the first caller.
type Marker interface {
	Mark(ctx context.Context, messageId string, emote string) (bool, error)
}

type RedisMarker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMarker(client *redis.Client, ttl time.Duration) *RedisMarker {
	return &RedisMarker{client: client, ttl: ttl}
}

func (m *RedisMarker) Mark(ctx context.Context, messageId string, emote string) (bool, error) {
	return m.client.SetNX(ctx, markerKey(messageId, emote), 1, m.ttl).Result()
}

func markerKey(messageId string, emote string) string {
	h := sha3.NewShake256()
	h.Write([]byte("rfx"))
	h.Write([]byte(messageId))
	h.Write([]byte{0})
	h.Write([]byte(emote))

	sum := make([]byte, 32)
	h.Read(sum)
	return "rfx:" + base64.URLEncoding.EncodeToString(sum)
}

// MemoryMarker keeps marks in process for ttl. Used when Redis isn't
// configured.
type MemoryMarker struct {
	mu    sync.Mutex
	ttl   time.Duration
	marks map[string]time.Time
	now   func() time.Time
}

func NewMemoryMarker(ttl time.Duration) *MemoryMarker {
	return &MemoryMarker{
		ttl:   ttl,
		marks: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (m *MemoryMarker) Mark(_ context.Context, messageId string, emote string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, expires := range m.marks {
		if now.After(expires) {
			delete(m.marks, k)
		}
	}

	key := messageId + "\x00" + emote
	if _, ok := m.marks[key]; ok {
		return false, nil
	}
	m.marks[key] = now.Add(m.ttl)
	return true, nil
}
