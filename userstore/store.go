package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	tourneyauth "github.com/karanshukla/totalwarhammer-tournament-app-sub000"
)

// ErrRedisUnavailable is an exported constant or variable used by the authentication engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	userKeyPrefix     = "tus:"
	emailIndexPrefix  = "tue:"
	uniqueIndexPrefix = "tun:"
)

// Both unique indexes are claimed before the record is written, so two
// concurrent registrations can never both succeed.
const createUserScript = `
if redis.call("EXISTS", KEYS[1]) == 1 or redis.call("EXISTS", KEYS[2]) == 1 then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("SET", KEYS[2], ARGV[1])
redis.call("HSET", KEYS[3],
  "id", ARGV[1],
  "email", ARGV[2],
  "username", ARGV[3],
  "password_hash", ARGV[4],
  "role", ARGV[5])
return 1
`

// The old username index is released only after the new one is claimed.
const updateUsernameScript = `
if redis.call("EXISTS", KEYS[3]) == 0 then
  return -1
end
if redis.call("EXISTS", KEYS[2]) == 1 and redis.call("GET", KEYS[2]) ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SET", KEYS[2], ARGV[1])
redis.call("HSET", KEYS[3], "username", ARGV[2])
return 1
`

var (
	createUserLua     = redis.NewScript(createUserScript)
	updateUsernameLua = redis.NewScript(updateUsernameScript)
)

// Store is a Redis-backed account store. It satisfies
// [tourneyauth.UserProvider].
type Store struct {
	redis redis.UniversalClient
}

// NewStore creates a user [Store] backed by the given Redis client.
func NewStore(redisClient redis.UniversalClient) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) userKey(userID string) string {
	return userKeyPrefix + userID
}

func (s *Store) emailKey(email string) string {
	return emailIndexPrefix + email
}

func (s *Store) usernameKey(username string) string {
	return uniqueIndexPrefix + username
}

// CreateUser persists a new account. A taken email or username reports
// [tourneyauth.ErrProviderDuplicateIdentifier]; which of the two collided is
// deliberately not distinguished.
func (s *Store) CreateUser(ctx context.Context, input tourneyauth.CreateUserInput) (tourneyauth.UserRecord, error) {
	user := tourneyauth.UserRecord{
		UserID:       uuid.NewString(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}

	created, err := createUserLua.Run(
		ctx,
		s.redis,
		[]string{s.emailKey(user.Email), s.usernameKey(user.Username), s.userKey(user.UserID)},
		user.UserID, user.Email, user.Username, user.PasswordHash, user.Role,
	).Int()
	if err != nil {
		return tourneyauth.UserRecord{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if created == 0 {
		return tourneyauth.UserRecord{}, tourneyauth.ErrProviderDuplicateIdentifier
	}

	return user, nil
}

// GetUserByEmail resolves the email index and loads the record.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (tourneyauth.UserRecord, error) {
	userID, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return tourneyauth.UserRecord{}, tourneyauth.ErrUserNotFound
		}
		return tourneyauth.UserRecord{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.GetUserByID(ctx, userID)
}

// GetUserByID loads a user record by its id.
func (s *Store) GetUserByID(ctx context.Context, userID string) (tourneyauth.UserRecord, error) {
	fields, err := s.redis.HGetAll(ctx, s.userKey(userID)).Result()
	if err != nil {
		return tourneyauth.UserRecord{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return tourneyauth.UserRecord{}, tourneyauth.ErrUserNotFound
	}

	return tourneyauth.UserRecord{
		UserID:       fields["id"],
		Email:        fields["email"],
		Username:     fields["username"],
		PasswordHash: fields["password_hash"],
		Role:         fields["role"],
	}, nil
}

// UpdateUsername renames an account, keeping the username index unique.
func (s *Store) UpdateUsername(ctx context.Context, userID, username string) (tourneyauth.UserRecord, error) {
	current, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return tourneyauth.UserRecord{}, err
	}

	res, err := updateUsernameLua.Run(
		ctx,
		s.redis,
		[]string{s.usernameKey(current.Username), s.usernameKey(username), s.userKey(userID)},
		userID, username,
	).Int()
	if err != nil {
		return tourneyauth.UserRecord{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	switch res {
	case -1:
		return tourneyauth.UserRecord{}, tourneyauth.ErrUserNotFound
	case 0:
		return tourneyauth.UserRecord{}, tourneyauth.ErrProviderDuplicateIdentifier
	}

	current.Username = username
	return current, nil
}
