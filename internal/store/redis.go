package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/davrodpin/scoundrel/internal/game"
)

const keyPrefix = "scoundrel:session:"

// Redis keeps each session under its own key with a TTL equal to the
// session timeout, so idle sessions disappear without a sweeper. Writes
// refresh the TTL of both the session and its history list.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func sessionKey(id string) string { return keyPrefix + id }
func historyKey(id string) string { return keyPrefix + id + ":history" }

func (r *Redis) Create(ctx context.Context, sess game.Session) (string, error) {
	sess.ID = newSessionID()
	data, err := json.Marshal(sess)
	if err != nil {
		return "", oops.In("redis").With("operation", "marshal session").Wrap(err)
	}

	ok, err := r.client.SetNX(ctx, sessionKey(sess.ID), data, r.ttl).Result()
	if err != nil {
		return "", oops.In("redis").With("operation", "set session").Wrap(err)
	}
	if !ok {
		return "", oops.In("redis").With("session_id", sess.ID).Errorf("session id collision")
	}
	return sess.ID, nil
}

func (r *Redis) Load(ctx context.Context, id string) (game.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.Session{}, game.ErrNotFound
	}
	if err != nil {
		return game.Session{}, oops.In("redis").With("operation", "get session").With("session_id", id).Wrap(err)
	}

	var sess game.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return game.Session{}, oops.In("redis").With("operation", "unmarshal session").With("session_id", id).Wrap(err)
	}
	return sess, nil
}

func (r *Redis) Save(ctx context.Context, sess game.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return oops.In("redis").With("operation", "marshal session").With("session_id", sess.ID).Wrap(err)
	}

	var set *redis.BoolCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		set = pipe.SetXX(ctx, sessionKey(sess.ID), data, r.ttl)
		pipe.Expire(ctx, historyKey(sess.ID), r.ttl)
		return nil
	})
	if err != nil {
		return oops.In("redis").With("operation", "save session").With("session_id", sess.ID).Wrap(err)
	}
	if !set.Val() {
		return game.ErrNotFound
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id), historyKey(id)).Err(); err != nil {
		return oops.In("redis").With("operation", "delete session").With("session_id", id).Wrap(err)
	}
	return nil
}

func (r *Redis) AppendHistory(ctx context.Context, e game.HistoryEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return oops.In("redis").With("operation", "marshal history").With("session_id", e.SessionID).Wrap(err)
	}

	n, err := r.client.Exists(ctx, sessionKey(e.SessionID)).Result()
	if err != nil {
		return oops.In("redis").With("operation", "check session").With("session_id", e.SessionID).Wrap(err)
	}
	if n == 0 {
		return game.ErrNotFound
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, historyKey(e.SessionID), data)
		pipe.Expire(ctx, historyKey(e.SessionID), r.ttl)
		return nil
	})
	if err != nil {
		return oops.In("redis").With("operation", "append history").With("session_id", e.SessionID).Wrap(err)
	}
	return nil
}

func (r *Redis) History(ctx context.Context, sessionID string) ([]game.HistoryEntry, error) {
	raws, err := r.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, oops.In("redis").With("operation", "read history").With("session_id", sessionID).Wrap(err)
	}

	entries := make([]game.HistoryEntry, 0, len(raws))
	for i, raw := range raws {
		var e game.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, oops.In("redis").With("operation", "unmarshal history").Wrap(fmt.Errorf("entry %d: %w", i, err))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Ping reports whether the server answers.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
