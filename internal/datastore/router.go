package datastore

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/t-takamichi/book-manager-api/pkg/circuitbreaker"
)

// Querier is the capability a read/write callback receives: enough of the
// sqlx surface for squirrel-built queries, nothing that leaks the handle.
// Both *sqlx.DB and *sqlx.Tx satisfy it.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Primary is the store handle used for writes and freshness-forced reads.
type Primary interface {
	Querier
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	PingContext(ctx context.Context) error
	Close() error
}

// Replica serves ordinary reads and may lag behind the primary.
type Replica interface {
	Querier
	PingContext(ctx context.Context) error
	Close() error
}

var (
	_ Primary = (*sqlx.DB)(nil)
	_ Replica = (*sqlx.DB)(nil)
)

// DefaultMaxStale is the window after a write during which RequireFresh
// reads are forced to the primary.
const DefaultMaxStale = 2 * time.Second

type readOptions struct {
	requireFresh bool
	maxStale     time.Duration
}

type ReadOption func(*readOptions)

// RequireFresh forces the read to the primary while the last write is
// younger than the staleness window (read-your-own-write).
func RequireFresh() ReadOption {
	return func(o *readOptions) { o.requireFresh = true }
}

// MaxStale overrides the staleness window for a single read.
func MaxStale(d time.Duration) ReadOption {
	return func(o *readOptions) { o.maxStale = d }
}

type Option func(*Router)

// WithMaxStale sets the router-wide default staleness window.
func WithMaxStale(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.maxStale = d
		}
	}
}

// Router owns the primary and replica handles and decides, per call, which
// one answers. It is a single long-lived instance per process, explicitly
// constructed and disposed by the app.
type Router struct {
	primary Primary
	replica Replica
	breaker circuitbreaker.CircuitBreaker
	log     *zap.Logger

	maxStale time.Duration

	mu          sync.Mutex
	lastWriteAt time.Time
}

func New(primary Primary, replica Replica, log *zap.Logger, opts ...Option) *Router {
	r := &Router{
		primary:  primary,
		replica:  replica,
		breaker:  circuitbreaker.New(20, 5*time.Second, 0.5, 3),
		log:      log.Named("datastore"),
		maxStale: DefaultMaxStale,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TransactOnPrimary runs fn inside a primary transaction. fn's error aborts
// the transaction and propagates unchanged; on commit the write timestamp is
// stamped for the freshness window.
func (r *Router) TransactOnPrimary(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.primary.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Warn("tx rollback", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}

	r.markWrite()
	return nil
}

// ExecuteOnPrimary runs fn against the primary without a transaction wrapper
// (single-statement writes). Stamps the write timestamp on success.
func (r *Router) ExecuteOnPrimary(ctx context.Context, fn func(q Querier) error) error {
	if err := fn(r.primary); err != nil {
		return err
	}
	r.markWrite()
	return nil
}

// QueryOnReplica runs fn against the replica. With RequireFresh inside the
// staleness window the read is routed to the primary instead. A replica
// failure (or an open breaker after repeated failures) falls back to the
// primary transparently; the caller sees an error only when the primary
// attempt fails too.
//
// Callbacks must not report domain conditions (e.g. no rows) as errors, or
// the fallback would retry them against the primary.
func (r *Router) QueryOnReplica(ctx context.Context, fn func(q Querier) error, opts ...ReadOption) error {
	o := readOptions{maxStale: r.maxStale}
	for _, opt := range opts {
		opt(&o)
	}

	if o.requireFresh && r.withinStaleWindow(time.Now(), o.maxStale) {
		return fn(r.primary)
	}

	err := r.breaker.Call(func() error { return fn(r.replica) })
	if err == nil {
		return nil
	}
	r.log.Warn("replica read failed, falling back to primary", zap.Error(err))

	return fn(r.primary)
}

// Connect verifies both handles. A dead primary is fatal; a dead replica is
// logged and the router keeps working in primary-fallback mode.
func (r *Router) Connect(ctx context.Context) error {
	if err := r.primary.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping primary")
	}
	if err := r.replica.PingContext(ctx); err != nil {
		r.log.Warn("replica ping failed, reads will fall back to primary", zap.Error(err))
	}
	return nil
}

// Disconnect releases both handles, best effort.
func (r *Router) Disconnect() {
	if err := r.primary.Close(); err != nil {
		r.log.Warn("close primary", zap.Error(err))
	}
	if err := r.replica.Close(); err != nil {
		r.log.Warn("close replica", zap.Error(err))
	}
}

func (r *Router) markWrite() {
	r.mu.Lock()
	r.lastWriteAt = time.Now()
	r.mu.Unlock()
}

func (r *Router) withinStaleWindow(now time.Time, maxStale time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.lastWriteAt.IsZero() && now.Sub(r.lastWriteAt) < maxStale
}
