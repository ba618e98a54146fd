package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/toolserve/internal/ir"
	"github.com/roach88/toolserve/internal/store"
)

// Store is the record store the dispatcher drives.
type Store interface {
	Select(ctx context.Context, filter ir.Row) ([]ir.Row, error)
	Insert(ctx context.Context, record ir.Row) (int64, error)
	Update(ctx context.Context, record ir.Row) (int64, error)
	SoftDelete(ctx context.Context, id int64) (int64, error)
}

// Clock supplies envelope timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the envelope clock (for testing).
func WithClock(c Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// Dispatcher runs one store operation per request.
// It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	store  Store
	key    string
	clock  Clock
	logger *slog.Logger
}

// New creates a Dispatcher over st. key names the table's key column.
func New(st Store, key string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:  st,
		key:    key,
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch plans and executes the operation for method and payload.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, payload ir.Row) (Envelope, error) {
	op, err := Plan(method, payload, d.key)
	if err != nil {
		d.logger.Debug("request rejected", "method", method, "error", err)
		return Envelope{}, err
	}
	return d.Execute(ctx, method, op)
}

// Execute runs op against the store and builds the envelope for method.
func (d *Dispatcher) Execute(ctx context.Context, method string, op Operation) (Envelope, error) {
	env := Envelope{
		Rows:    []ir.Row{},
		Time:    d.clock.Now(),
		Message: method,
	}

	switch o := op.(type) {
	case Select:
		rows, err := d.store.Select(ctx, o.Filter)
		if err != nil {
			return Envelope{}, d.storeError("select", err)
		}
		env.Rows = rows

	case Insert:
		id, err := d.store.Insert(ctx, o.Record)
		if err != nil {
			return Envelope{}, d.storeError("insert", err)
		}
		d.logger.Info("record created", "id", id)

	case Update:
		record := append(ir.Row{ir.F(d.key, ir.Int(o.ID))}, o.Set...)
		affected, err := d.store.Update(ctx, record)
		if err != nil {
			return Envelope{}, d.storeError("update", err)
		}
		d.logger.Info("record updated", "id", o.ID, "affected", affected)

	case SoftDelete:
		affected, err := d.store.SoftDelete(ctx, o.ID)
		if err != nil {
			return Envelope{}, d.storeError("soft delete", err)
		}
		d.logger.Info("record soft-deleted", "id", o.ID, "affected", affected)

	default:
		return Envelope{}, NewError(KindUnsupportedMethod, fmt.Sprintf("unsupported operation %T", op))
	}

	return env, nil
}

// storeError classifies a store failure. Allow-list rejections are the
// caller's fault; everything else is a server-side store error whose
// details stay out of the client message.
func (d *Dispatcher) storeError(op string, err error) error {
	if errors.Is(err, store.ErrInvalid) {
		return WrapError(KindValidation, err.Error(), err)
	}
	return WrapError(KindStore, op+" failed", err)
}
