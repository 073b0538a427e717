package twofactor

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeRecordVersion1 = 1
	defaultKeyPrefix   = "sfc"
)

var (
	// ErrBackend wraps Redis failures so callers can separate an unavailable
	// backend from a rejected code.
	ErrBackend = errors.New("two-factor code backend unavailable")

	errCodeNotFound = errors.New("two-factor code not found")
	errCodeExpired  = errors.New("two-factor code expired")
	errCodeMismatch = errors.New("two-factor code mismatch")
	errCodeExceeded = errors.New("two-factor code attempts exceeded")
)

type codeRecord struct {
	CodeHash  [32]byte
	ExpiresAt int64
	Attempts  uint16
}

// Config controls code shape and lifetime for a Store.
type Config struct {
	// Prefix namespaces Redis keys. Defaults to "sfc".
	Prefix string
	// CodeTTL is how long a generated code stays redeemable.
	CodeTTL time.Duration
	// CodeDigits is the length of generated codes.
	CodeDigits int
	// MaxAttempts deletes a stored code after this many failed verifications.
	MaxAttempts int
}

// Store is a Redis-backed one-time code provider. Codes are stored hashed,
// expire after CodeTTL, and are consumed on first successful verification.
type Store struct {
	redis       redis.UniversalClient
	prefix      string
	ttl         time.Duration
	digits      int
	maxAttempts int
}

// NewStore describes the newstore operation and its observable behavior.
//
// NewStore may return an error when input validation, dependency calls, or security checks fail.
// NewStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewStore(redisClient redis.UniversalClient, cfg Config) (*Store, error) {
	if redisClient == nil {
		return nil, errors.New("redis client required")
	}
	if cfg.CodeTTL <= 0 {
		return nil, errors.New("code TTL must be > 0")
	}
	if cfg.CodeDigits < 6 || cfg.CodeDigits > 10 {
		return nil, errors.New("code digits must be between 6 and 10")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("max attempts must be > 0")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{
		redis:       redisClient,
		prefix:      prefix,
		ttl:         cfg.CodeTTL,
		digits:      cfg.CodeDigits,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

func (s *Store) key(userID, provider string) string {
	return s.prefix + ":" + provider + ":" + userID
}

// Generate describes the generate operation and its observable behavior.
//
// Generate may return an error when input validation, dependency calls, or security checks fail.
// Generate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The returned code is the only plaintext copy; Redis holds a SHA-256 digest.
// Generating a new code for the same (user, provider) pair replaces any
// outstanding one.
func (s *Store) Generate(ctx context.Context, userID, provider string) (string, error) {
	if userID == "" || provider == "" {
		return "", errors.New("user id and provider required")
	}

	code, err := randomDigits(s.digits)
	if err != nil {
		return "", err
	}

	record := &codeRecord{
		CodeHash:  sha256.Sum256([]byte(code)),
		ExpiresAt: time.Now().Add(s.ttl).Unix(),
	}
	encoded, err := encodeCodeRecord(record)
	if err != nil {
		return "", err
	}

	if err := s.redis.Set(ctx, s.key(userID, provider), encoded, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}

	return code, nil
}

// Verify describes the verify operation and its observable behavior.
//
// Verify may return an error when input validation, dependency calls, or security checks fail.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A matching code is deleted before Verify reports true, so every code
// redeems at most once. A mismatch increments the stored attempt counter
// inside a Redis transaction and deletes the code once MaxAttempts is
// reached. Missing, expired, mismatched, and exhausted codes all report
// (false, nil); the error return is reserved for backend failures.
func (s *Store) Verify(ctx context.Context, userID, provider, code string) (bool, error) {
	const maxRetries = 4
	key := s.key(userID, provider)
	providedHash := sha256.Sum256([]byte(code))

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeCodeRecord(data)
			if err != nil {
				return err
			}

			if time.Now().Unix() > record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return errCodeExpired
			}

			if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
				record.Attempts++
				if int(record.Attempts) >= s.maxAttempts {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return errCodeExceeded
				}

				ttl := time.Until(time.Unix(record.ExpiresAt, 0))
				if ttl <= 0 {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return errCodeExpired
				}

				updated, err := encodeCodeRecord(record)
				if err != nil {
					return err
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}
				return errCodeMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil),
				errors.Is(err, errCodeNotFound),
				errors.Is(err, errCodeExpired),
				errors.Is(err, errCodeMismatch),
				errors.Is(err, errCodeExceeded):
				return false, nil
			default:
				return false, fmt.Errorf("%w: %v", ErrBackend, err)
			}
		}
		return true, nil
	}

	return false, nil
}

// Invalidate describes the invalidate operation and its observable behavior.
//
// Invalidate may return an error when input validation, dependency calls, or security checks fail.
// Invalidate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Invalidate(ctx context.Context, userID, provider string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(userID, provider)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n > 0, nil
}

func randomDigits(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		out[i] = '0' + byte(d.Int64())
	}
	return string(out), nil
}

func encodeCodeRecord(record *codeRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(codeRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeCodeRecord(data []byte) (*codeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != codeRecordVersion1 {
		return nil, errors.New("invalid code record version")
	}

	record := &codeRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
