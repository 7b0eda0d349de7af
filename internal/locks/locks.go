// Package locks provides a Redlock mutex over the shared Redis so that only
// one ingestion run writes to the card collection at a time.
package locks

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"

	"card-catalog/internal/common/errors"
	"card-catalog/internal/common/logging"
	"card-catalog/internal/redis"
)

const (
	// KeyPrefix namespaces every lock key in Redis.
	KeyPrefix = "card-catalog:lock:"

	// DefaultExpiry is how long a lock survives without renewal.
	DefaultExpiry = 30 * time.Second

	// CodeLockHeld marks an acquisition refused because another holder owns the key.
	CodeLockHeld = "lock_held"

	// CodeLockUnavailable marks an acquisition that failed because Redis could
	// not be reached or answered with an error.
	CodeLockUnavailable = "lock_unavailable"

	releaseTimeout = 5 * time.Second
)

// Manager hands out named locks.
type Manager struct {
	rs     *redsync.Redsync
	logger logging.Logger
}

// NewManager builds a lock manager on a connected Redis client.
func NewManager(client *redis.Client, logger logging.Logger) (*Manager, error) {
	if client == nil {
		return nil, errors.ConfigError("redis client is required")
	}
	if logger == nil {
		logger = logging.Component("locks")
	}
	pool := goredis.NewPool(client.Underlying())
	return &Manager{rs: redsync.New(pool), logger: logger}, nil
}

// Lock is a held mutex. It is renewed in the background at a third of its
// expiry until Release is called or a renewal fails. A failed renewal closes
// Lost.
type Lock struct {
	key    string
	mutex  *redsync.Mutex
	logger logging.Logger

	cancel context.CancelFunc
	done   chan struct{}
	lost   chan struct{}

	mu   sync.Mutex
	held bool
}

// Acquire takes key without waiting. When another holder owns it the error
// carries CodeLockHeld; when Redis fails it is a connection error carrying
// CodeLockUnavailable.
func (m *Manager) Acquire(ctx context.Context, key string, expiry time.Duration) (*Lock, error) {
	if key == "" {
		return nil, errors.ValidationError("lock key is required")
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	mutex := m.rs.NewMutex(KeyPrefix+key,
		redsync.WithExpiry(expiry),
		redsync.WithTries(1),
	)
	if err := mutex.LockContext(ctx); err != nil {
		if isTaken(err) {
			return nil, errors.InternalError("distributed lock is held elsewhere", err).
				WithCode(CodeLockHeld).
				WithContext("key", key)
		}
		return nil, errors.ConnectionError("failed to acquire distributed lock", err).
			WithCode(CodeLockUnavailable).
			WithContext("key", key)
	}

	renewCtx, cancel := context.WithCancel(context.Background())
	lock := &Lock{
		key:    key,
		mutex:  mutex,
		logger: m.logger,
		cancel: cancel,
		done:   make(chan struct{}),
		lost:   make(chan struct{}),
		held:   true,
	}
	go lock.renew(renewCtx, expiry)

	m.logger.Debug("Lock acquired", logging.String("key", key))
	return lock, nil
}

// Key returns the name the lock was acquired under.
func (l *Lock) Key() string { return l.key }

// Held reports whether the lock is still owned.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Lost is closed when a renewal fails and the lock can no longer be trusted.
// It stays open after a normal Release.
func (l *Lock) Lost() <-chan struct{} { return l.lost }

// Release stops renewal and unlocks. Releasing twice is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	l.cancel()
	<-l.done

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return nil
	}
	l.held = false

	ctx, cancel := context.WithTimeout(ctx, releaseTimeout)
	defer cancel()
	if ok, err := l.mutex.UnlockContext(ctx); err != nil || !ok {
		return errors.InternalError("failed to release distributed lock", err).WithContext("key", l.key)
	}
	return nil
}

func (l *Lock) renew(ctx context.Context, expiry time.Duration) {
	defer close(l.done)

	interval := expiry / 3
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			extendCtx, cancel := context.WithTimeout(ctx, releaseTimeout)
			ok, err := l.mutex.ExtendContext(extendCtx)
			cancel()
			if ctx.Err() != nil {
				return
			}
			if err != nil || !ok {
				l.mu.Lock()
				l.held = false
				l.mu.Unlock()
				close(l.lost)
				l.logger.Warn("Lost distributed lock", logging.String("key", l.key), logging.Err(err))
				return
			}
		}
	}
}

// isTaken reports whether a LockContext failure means another owner holds the
// key, as opposed to Redis being unreachable.
func isTaken(err error) bool {
	var taken *redsync.ErrTaken
	var nodeTaken *redsync.ErrNodeTaken
	return stderrors.As(err, &taken) || stderrors.As(err, &nodeTaken)
}
