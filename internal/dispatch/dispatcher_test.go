package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/toolserve/internal/ir"
	"github.com/roach88/toolserve/internal/store"
	"github.com/roach88/toolserve/internal/testutil"
)

// fakeStore records calls and returns canned results.
type fakeStore struct {
	calls []string
	rows  []ir.Row
	last  ir.Row
	id    int64
	err   error
}

func (f *fakeStore) Select(_ context.Context, filter ir.Row) ([]ir.Row, error) {
	f.calls = append(f.calls, "select")
	f.last = filter
	return f.rows, f.err
}

func (f *fakeStore) Insert(_ context.Context, record ir.Row) (int64, error) {
	f.calls = append(f.calls, "insert")
	f.last = record
	return 1, f.err
}

func (f *fakeStore) Update(_ context.Context, record ir.Row) (int64, error) {
	f.calls = append(f.calls, "update")
	f.last = record
	return 1, f.err
}

func (f *fakeStore) SoftDelete(_ context.Context, id int64) (int64, error) {
	f.calls = append(f.calls, "soft_delete")
	f.id = id
	return 1, f.err
}

func newTestDispatcher(st Store) *Dispatcher {
	return New(st, "id",
		WithClock(testutil.NewDeterministicClock(time.Time{}, time.Second)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestDispatch_GetSelectsWithFilter(t *testing.T) {
	row := ir.Row{ir.F("id", ir.Int(1)), ir.F("app_name", ir.String("calc"))}
	st := &fakeStore{rows: []ir.Row{row}}
	d := newTestDispatcher(st)

	filter := ir.Row{ir.F("app_name", ir.String("calc"))}
	env, err := d.Dispatch(context.Background(), http.MethodGet, filter)
	require.NoError(t, err)

	assert.Equal(t, []string{"select"}, st.calls)
	assert.Equal(t, filter, st.last)
	assert.Equal(t, []ir.Row{row}, env.Rows)
	assert.Equal(t, "GET", env.Message)
	assert.Equal(t, testutil.DefaultEpoch, env.Time)
}

func TestDispatch_PostInserts(t *testing.T) {
	st := &fakeStore{}
	d := newTestDispatcher(st)

	record := ir.Row{ir.F("app_name", ir.String("calc")), ir.F("notes", ir.String("v1"))}
	env, err := d.Dispatch(context.Background(), http.MethodPost, record)
	require.NoError(t, err)

	assert.Equal(t, []string{"insert"}, st.calls)
	assert.Equal(t, record, st.last)
	assert.NotNil(t, env.Rows)
	assert.Empty(t, env.Rows)
	assert.Equal(t, "POST", env.Message)
}

func TestDispatch_PutUpdatesWithKeyFirst(t *testing.T) {
	st := &fakeStore{}
	d := newTestDispatcher(st)

	payload := ir.Row{ir.F("notes", ir.String("v2")), ir.F("id", ir.Int(4))}
	env, err := d.Dispatch(context.Background(), http.MethodPut, payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"update"}, st.calls)
	assert.Equal(t, ir.Row{ir.F("id", ir.Int(4)), ir.F("notes", ir.String("v2"))}, st.last)
	assert.Equal(t, "PUT", env.Message)
}

func TestDispatch_DeleteSoftDeletes(t *testing.T) {
	st := &fakeStore{}
	d := newTestDispatcher(st)

	env, err := d.Dispatch(context.Background(), http.MethodDelete, ir.Row{ir.F("id", ir.Int(9))})
	require.NoError(t, err)

	assert.Equal(t, []string{"soft_delete"}, st.calls)
	assert.Equal(t, int64(9), st.id)
	assert.Equal(t, "DELETE", env.Message)
}

func TestDispatch_ValidationErrorsSkipStore(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		payload ir.Row
		message string
	}{
		{"post empty", http.MethodPost, ir.Row{}, "record has no fields"},
		{"put without id", http.MethodPut, ir.Row{ir.F("notes", ir.String("x"))}, "missing id"},
		{"put only id", http.MethodPut, ir.Row{ir.F("id", ir.Int(1))}, "no fields to update"},
		{"put zero id", http.MethodPut, ir.Row{ir.F("id", ir.Int(0)), ir.F("notes", ir.String("x"))}, "id must be positive"},
		{"put string id", http.MethodPut, ir.Row{ir.F("id", ir.String("1")), ir.F("notes", ir.String("x"))}, "id must be an integer"},
		{"delete without id", http.MethodDelete, ir.Row{}, "missing id"},
		{"delete zero id", http.MethodDelete, ir.Row{ir.F("id", ir.Int(0))}, "id must be positive"},
		{"delete extra fields", http.MethodDelete, ir.Row{ir.F("id", ir.Int(1)), ir.F("status", ir.Int(0))}, "unexpected fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeStore{}
			d := newTestDispatcher(st)

			_, err := d.Dispatch(context.Background(), tt.method, tt.payload)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Contains(t, err.Error(), tt.message)
			assert.Empty(t, st.calls, "store must not be called")
		})
	}
}

func TestDispatch_UnsupportedMethod(t *testing.T) {
	st := &fakeStore{}
	d := newTestDispatcher(st)

	_, err := d.Dispatch(context.Background(), http.MethodPatch, ir.Row{})
	require.Error(t, err)
	assert.Equal(t, KindUnsupportedMethod, KindOf(err))
	assert.Equal(t, http.StatusMethodNotAllowed, KindOf(err).Status())
	assert.Empty(t, st.calls)
}

func TestDispatch_StoreFailure(t *testing.T) {
	cause := fmt.Errorf("%w: select: %w", store.ErrStore, errors.New("disk I/O error"))
	st := &fakeStore{err: cause}
	d := newTestDispatcher(st)

	env, err := d.Dispatch(context.Background(), http.MethodGet, nil)
	require.Error(t, err)
	assert.Equal(t, KindStore, KindOf(err))
	assert.ErrorIs(t, err, store.ErrStore)
	assert.Nil(t, env.Rows)

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "select failed", de.Message, "driver details stay out of the message")
}

func TestDispatch_StoreRejection(t *testing.T) {
	cause := fmt.Errorf("%w: %w", store.ErrInvalid, errors.New(`unknown column "owner"`))
	st := &fakeStore{err: cause}
	d := newTestDispatcher(st)

	_, err := d.Dispatch(context.Background(), http.MethodPost, ir.Row{ir.F("owner", ir.String("me"))})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "owner")
}

func TestExecute_UnknownOperation(t *testing.T) {
	d := newTestDispatcher(&fakeStore{})

	_, err := d.Execute(context.Background(), http.MethodGet, nil)
	assert.Equal(t, KindUnsupportedMethod, KindOf(err))
}

func TestDispatch_EnvelopesAreIndependent(t *testing.T) {
	st := &fakeStore{rows: []ir.Row{{ir.F("id", ir.Int(1))}}}
	d := newTestDispatcher(st)
	ctx := context.Background()

	first, err := d.Dispatch(ctx, http.MethodGet, nil)
	require.NoError(t, err)

	st.rows = nil
	second, err := d.Dispatch(ctx, http.MethodPost, ir.Row{ir.F("app_name", ir.String("x"))})
	require.NoError(t, err)

	// A later request never rewrites an earlier envelope
	assert.Len(t, first.Rows, 1)
	assert.Equal(t, "GET", first.Message)
	assert.Empty(t, second.Rows)
	assert.Equal(t, "POST", second.Message)
	assert.True(t, second.Time.After(first.Time))
}

func TestEnvelopeJSON(t *testing.T) {
	env := Envelope{
		Rows: []ir.Row{{
			ir.F("id", ir.Int(1)),
			ir.F("app_name", ir.String("calc")),
			ir.F("notes", ir.String("v1")),
			ir.F("status", ir.Int(1)),
		}},
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Message: "GET",
	}

	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"data":[{"id":1,"app_name":"calc","notes":"v1","status":1}],"time":"2024-01-02 03:04:05","message":"GET"}`,
		string(b))
}

func TestEnvelopeJSON_EmptyDataIsArray(t *testing.T) {
	b, err := json.Marshal(Envelope{Message: "POST"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"data":[]`)
}

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindDecode.Status())
	assert.Equal(t, http.StatusMethodNotAllowed, KindUnsupportedMethod.Status())
	assert.Equal(t, http.StatusUnprocessableEntity, KindValidation.Status())
	assert.Equal(t, http.StatusInternalServerError, KindStore.Status())
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindStore, KindOf(errors.New("boom")))
	assert.Equal(t, KindDecode, KindOf(fmt.Errorf("wrapped: %w", NewError(KindDecode, "bad json"))))
}

func TestSupported(t *testing.T) {
	for _, m := range []string{"GET", "POST", "PUT", "DELETE"} {
		assert.True(t, Supported(m), m)
	}
	for _, m := range []string{"PATCH", "HEAD", "OPTIONS", "get"} {
		assert.False(t, Supported(m), m)
	}
}
