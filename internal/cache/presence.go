package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Presence tracks who currently has a live websocket session. A nil
// *Presence is a no-op, so deployments without redis just skip the
// feature.
type Presence struct {
	cli *redis.Client
	log zerolog.Logger
}

func NewPresence(addr, password string, db int, log zerolog.Logger) (*Presence, error) {
	cli := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Presence{cli: cli, log: log}, nil
}

func (p *Presence) Set(ctx context.Context, uid string, online bool) {
	if p == nil {
		return
	}
	val := "0"
	if online {
		val = "1"
	}
	if err := p.cli.Set(ctx, "presence:"+uid, val, 0).Err(); err != nil {
		p.log.Warn().Err(err).Str("uid", uid).Msg("presence set")
	}
}

func (p *Presence) Get(ctx context.Context, uid string) (bool, error) {
	if p == nil {
		return false, nil
	}
	s, err := p.cli.Get(ctx, "presence:"+uid).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s == "1", nil
}

func (p *Presence) Close() error {
	if p == nil {
		return nil
	}
	return p.cli.Close()
}
