package statecache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func statusKey(name string) string {
	return fmt.Sprintf("wmsbridge:robot:%s:status", name)
}

func poseKey(name string) string {
	return fmt.Sprintf("wmsbridge:robot:%s:pose", name)
}

const allRobotsKey = "wmsbridge:robots"

func (r *RedisStore) SetStatus(ctx context.Context, name, state string) error {
	pipe := r.client.Pipeline()
	pipe.Set(ctx, statusKey(name), state, 0)
	pipe.SAdd(ctx, allRobotsKey, name)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) SetPose(ctx context.Context, name string, pose Pose) error {
	data, err := json.Marshal(pose)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, poseKey(name), data, 0)
	pipe.SAdd(ctx, allRobotsKey, name)
	_, err = pipe.Exec(ctx)
	return err
}

// LoadAll reads every cached robot's status and pose.
func (r *RedisStore) LoadAll(ctx context.Context) (map[string]string, map[string]Pose, error) {
	names, err := r.client.SMembers(ctx, allRobotsKey).Result()
	if err != nil {
		return nil, nil, err
	}

	statuses := make(map[string]string)
	poses := make(map[string]Pose)
	for _, name := range names {
		if state, err := r.client.Get(ctx, statusKey(name)).Result(); err == nil {
			statuses[name] = state
		} else if err != redis.Nil {
			return nil, nil, err
		}
		data, err := r.client.Get(ctx, poseKey(name)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		var pose Pose
		if err := json.Unmarshal(data, &pose); err != nil {
			continue
		}
		poses[name] = pose
	}
	return statuses, poses, nil
}
