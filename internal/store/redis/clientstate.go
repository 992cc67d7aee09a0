package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionState is the durable client record for one session, stored as a
// Redis hash. It implements nav.ClientState.
//
// Reads and writes fail soft: when Redis is unreachable a Get reports the key
// as absent and a Set is dropped with a log line. The navigation core treats
// an absent record as "no tenant selected", so a lost record degrades to the
// tenant-less default rather than an error.
type SessionState struct {
	client    *redis.Client
	sessionID uuid.UUID
	ttl       time.Duration
	timeout   time.Duration
}

// NewSessionState creates the durable record handle for a session. Every
// write refreshes the record's TTL.
func NewSessionState(client *redis.Client, sessionID uuid.UUID, ttl time.Duration) *SessionState {
	return &SessionState{
		client:    client,
		sessionID: sessionID,
		ttl:       ttl,
		timeout:   3 * time.Second,
	}
}

func (s *SessionState) key() string {
	return "clientstate:" + s.sessionID.String()
}

func (s *SessionState) Get(field string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	val, err := s.client.HGet(ctx, s.key(), field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("field", field).Msg("redis: client state read failed, treating as absent")
		return nil, false
	}

	return val, true
}

func (s *SessionState) Set(field string, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(), field, value)
	pipe.Expire(ctx, s.key(), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("field", field).Msg("redis: client state write failed")
	}
}

func (s *SessionState) Delete(field string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.HDel(ctx, s.key(), field).Err(); err != nil {
		log.Warn().Err(err).Str("field", field).Msg("redis: client state delete failed")
	}
}
