package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisChannelPrefix = "events:"

// BridgeToRedis mirrors every local event onto a Redis pub/sub channel so
// other processes (report views, dashboards) can resynchronize. Best-effort:
// a failed PUBLISH is logged, never propagated to the mutating caller.
// The returned func detaches the bridge.
func BridgeToRedis(bus Bus, rdb *redis.Client, topics ...Topic) func() {
	unsubs := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsub := bus.Subscribe(topic, func(ctx context.Context, ev Event) {
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Str("topic", string(ev.Topic)).Msg("events: marshal for redis bridge")
				return
			}
			if err := rdb.Publish(ctx, redisChannelPrefix+string(ev.Topic), payload).Err(); err != nil {
				log.Warn().Err(err).Str("topic", string(ev.Topic)).Msg("events: redis publish failed")
			}
		})
		unsubs = append(unsubs, unsub)
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
