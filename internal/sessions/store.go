package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store persists sessions in Redis.
// Records are stored as JSON under "<prefix><id>" with TTL = expiresAt - now.
// A secondary index SET "<prefix>sub:<subject>" holds the subject's session
// IDs so per-subject queries do not scan the keyspace. Index membership of an
// already-expired session is cleaned up lazily on read.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore creates a Redis-backed session store. Prefix may be empty,
// defaulting to "session:". ttl is the sliding expiration window (7 days in
// the default configuration).
func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "session:"
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) subKey(sub string) string {
	return s.prefix + "sub:" + sub
}

// Create stores a new session for the subject and returns it.
func (s *Store) Create(ctx context.Context, sub, ip, userAgent string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:             uuid.NewString(),
		Sub:            sub,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
		LastActivityAt: now,
		IP:             ip,
		UserAgent:      userAgent,
	}
	if err := s.write(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.client.SAdd(ctx, s.subKey(sub), sess.ID).Err(); err != nil {
		return nil, err
	}
	// keep the index alive at least as long as its newest member
	_ = s.client.Expire(ctx, s.subKey(sub), s.ttl).Err()
	return sess, nil
}

// Get returns the session, or (nil, nil) when it does not exist. An absent
// session is a normal outcome, not an error.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Touch updates LastActivityAt and resets the record's TTL to the full
// window (sliding expiration). No-op when the session no longer exists.
// Concurrent touches race on last-write-wins; activity tracking is advisory.
func (s *Store) Touch(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil || sess == nil {
		return err
	}
	now := time.Now().UTC()
	sess.LastActivityAt = now
	sess.ExpiresAt = now.Add(s.ttl)
	if err := s.write(ctx, sess); err != nil {
		return err
	}
	// the index must live at least as long as any session it points to,
	// otherwise a touched session could escape RevokeAllForSubject
	return s.client.Expire(ctx, s.subKey(sess.Sub), s.ttl).Err()
}

// Revoke deletes the session. Idempotent: revoking an absent session is not
// an error.
func (s *Store) Revoke(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess != nil {
		_ = s.client.SRem(ctx, s.subKey(sess.Sub), id).Err()
	}
	return s.client.Del(ctx, s.key(id)).Err()
}

// RevokeAllForSubject deletes every live session of the subject and returns
// how many were removed. The per-session deletes are not atomic with the
// index read, so a session created concurrently may survive this call
// (at-least-once-eventually, not exactly-once).
func (s *Store) RevokeAllForSubject(ctx context.Context, sub string) (int, error) {
	ids, err := s.client.SMembers(ctx, s.subKey(sub)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	revoked := 0
	for _, id := range ids {
		n, err := s.client.Del(ctx, s.key(id)).Result()
		if err != nil {
			return revoked, err
		}
		revoked += int(n)
	}
	if err := s.client.Del(ctx, s.subKey(sub)).Err(); err != nil {
		return revoked, err
	}
	return revoked, nil
}

// ListForSubject returns the subject's live sessions. IDs still in the index
// whose record has since expired are pruned from the index as they are seen.
func (s *Store) ListForSubject(ctx context.Context, sub string) ([]Session, error) {
	ids, err := s.client.SMembers(ctx, s.subKey(sub)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			_ = s.client.SRem(ctx, s.subKey(sub), id).Err()
			continue
		}
		out = append(out, *sess)
	}
	return out, nil
}

func (s *Store) write(ctx context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	exp := time.Until(sess.ExpiresAt)
	if exp <= 0 {
		// minimal TTL so Redis won't store an already-expired record
		exp = time.Second
	}
	return s.client.Set(ctx, s.key(sess.ID), b, exp).Err()
}
