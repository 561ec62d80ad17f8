package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/barber-booking/internal/api"
)

const redisUsersKey = "barber:users"

// Each write runs as one script. The step that can fail (a WRONGTYPE on the
// users set or the schedule) runs before the reservation key is set, so a failed write leaves no
// reservation behind.
var (
	// KEYS: email, user, users set. ARGV: id, user JSON.
	createUserScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("SADD", KEYS[3], ARGV[1])
redis.call("SET", KEYS[2], ARGV[2])
redis.call("SET", KEYS[1], ARGV[1])
return 1
`)

	// KEYS: slot, schedule. ARGV: id, unix score, appointment JSON.
	createAppointmentScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("ZADD", KEYS[2], ARGV[2], ARGV[3])
redis.call("SET", KEYS[1], ARGV[1])
return 1
`)
)

// RedisStore keeps users as JSON documents and appointments in a per-provider
// sorted set scored by unix time. A slot key guards double booking.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore panics on a nil client.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("backend: redis client required")
	}
	return &RedisStore{redis: redisClient}
}

func (s *RedisStore) userKey(id string) string {
	return fmt.Sprintf("barber:user:%s", id)
}

func (s *RedisStore) emailKey(email string) string {
	return fmt.Sprintf("barber:user:email:%s", email)
}

func (s *RedisStore) slotKey(providerID string, date time.Time) string {
	return fmt.Sprintf("barber:slot:%s:%d", providerID, date.Unix())
}

func (s *RedisStore) scheduleKey(providerID string) string {
	return fmt.Sprintf("barber:appointments:%s", providerID)
}

func (s *RedisStore) CreateUser(ctx context.Context, user User) error {
	user.Email = normalizeEmail(user.Email)
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("backend: marshal user: %w", err)
	}
	created, err := createUserScript.Run(ctx, s.redis,
		[]string{s.emailKey(user.Email), s.userKey(user.ID), redisUsersKey},
		user.ID, string(data),
	).Int()
	if err != nil {
		return fmt.Errorf("backend: save user: %w", err)
	}
	if created == 0 {
		return ErrEmailTaken
	}
	return nil
}

func (s *RedisStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	id, err := s.redis.Get(ctx, s.emailKey(normalizeEmail(email))).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("backend: lookup email: %w", err)
	}
	return s.UserByID(ctx, id)
}

func (s *RedisStore) UserByID(ctx context.Context, id string) (*User, error) {
	data, err := s.redis.Get(ctx, s.userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("backend: get user: %w", err)
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("backend: unmarshal user: %w", err)
	}
	return &user, nil
}

func (s *RedisStore) ListUsers(ctx context.Context) ([]User, error) {
	ids, err := s.redis.SMembers(ctx, redisUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("backend: list users: %w", err)
	}
	users := make([]User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.userKey(id))
	}
	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("backend: load users: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var user User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fmt.Errorf("backend: unmarshal user: %w", err)
		}
		users = append(users, user)
	}
	sortUsers(users)
	return users, nil
}

func (s *RedisStore) CreateAppointment(ctx context.Context, appt api.Appointment) error {
	data, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("backend: marshal appointment: %w", err)
	}
	created, err := createAppointmentScript.Run(ctx, s.redis,
		[]string{s.slotKey(appt.ProviderID, appt.Date), s.scheduleKey(appt.ProviderID)},
		appt.ID, appt.Date.Unix(), string(data),
	).Int()
	if err != nil {
		return fmt.Errorf("backend: save appointment: %w", err)
	}
	if created == 0 {
		return ErrSlotTaken
	}
	return nil
}

func (s *RedisStore) AppointmentsBetween(ctx context.Context, providerID string, from, to time.Time) ([]api.Appointment, error) {
	members, err := s.redis.ZRangeByScore(ctx, s.scheduleKey(providerID), &redis.ZRangeBy{
		Min: strconv.FormatInt(from.Unix(), 10),
		Max: "(" + strconv.FormatInt(to.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("backend: list appointments: %w", err)
	}
	out := make([]api.Appointment, 0, len(members))
	for _, m := range members {
		var appt api.Appointment
		if err := json.Unmarshal([]byte(m), &appt); err != nil {
			return nil, fmt.Errorf("backend: unmarshal appointment: %w", err)
		}
		out = append(out, appt)
	}
	return out, nil
}
