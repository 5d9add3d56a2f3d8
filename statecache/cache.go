// Package statecache keeps the last known robot state used to bring newly
// joined dashboard clients up to date: per-robot workflow status and last
// known pose. The in-memory maps are authoritative; Redis, when available,
// mirrors them so replay state survives a process restart.
package statecache

import (
	"context"
	"log"
	"sync"
	"time"
)

// Pose is a robot's last known 2D position and heading.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

const redisOpTimeout = 2 * time.Second

type Manager struct {
	mu       sync.RWMutex
	statuses map[string]string
	poses    map[string]Pose
	redis    *RedisStore // nil when running without Redis
}

func NewManager(redis *RedisStore) *Manager {
	return &Manager{
		statuses: make(map[string]string),
		poses:    make(map[string]Pose),
		redis:    redis,
	}
}

// Load restores cached state from Redis. Missing or unreachable Redis is
// not an error; the cache simply starts empty.
func (m *Manager) Load() {
	if m.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	statuses, poses, err := m.redis.LoadAll(ctx)
	if err != nil {
		log.Printf("statecache: redis load: %v", err)
		return
	}
	m.mu.Lock()
	for name, state := range statuses {
		m.statuses[name] = state
	}
	for name, pose := range poses {
		m.poses[name] = pose
	}
	m.mu.Unlock()
	if len(statuses) > 0 || len(poses) > 0 {
		log.Printf("statecache: restored %d statuses, %d poses from redis", len(statuses), len(poses))
	}
}

func (m *Manager) SetStatus(name, state string) {
	m.mu.Lock()
	m.statuses[name] = state
	m.mu.Unlock()

	if m.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		if err := m.redis.SetStatus(ctx, name, state); err != nil {
			log.Printf("statecache: redis set status %s: %v", name, err)
		}
	}
}

// Statuses returns a snapshot of the status cache.
func (m *Manager) Statuses() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.statuses))
	for name, state := range m.statuses {
		out[name] = state
	}
	return out
}

// SetPose overwrites the last known pose for a robot. Poses only move
// forward; there is no rollback path.
func (m *Manager) SetPose(name string, pose Pose) {
	m.mu.Lock()
	m.poses[name] = pose
	m.mu.Unlock()

	if m.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		if err := m.redis.SetPose(ctx, name, pose); err != nil {
			log.Printf("statecache: redis set pose %s: %v", name, err)
		}
	}
}

// Poses returns a snapshot of the pose cache.
func (m *Manager) Poses() map[string]Pose {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Pose, len(m.poses))
	for name, pose := range m.poses {
		out[name] = pose
	}
	return out
}
