package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/toolserve/internal/ir"
	"github.com/roach88/toolserve/internal/queryir"
	"github.com/roach88/toolserve/internal/store"
)

// seedDatabase creates a SQLite database holding the given records.
func seedDatabase(t *testing.T, records ...ir.Row) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(context.Background(), store.Options{DSN: dbPath})
	require.NoError(t, err)
	defer st.Close()

	for _, r := range records {
		_, err := st.Insert(context.Background(), r)
		require.NoError(t, err)
	}
	return dbPath
}

func runListCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewListCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestListText(t *testing.T) {
	dbPath := seedDatabase(t,
		ir.Row{ir.F("app_name", ir.NewString("calc")), ir.F("notes", ir.NewString("v1"))},
		ir.Row{ir.F("app_name", ir.NewString("editor")), ir.F("notes", ir.NewString("beta")), ir.F("status", ir.NewInt(0))},
	)

	out, err := runListCommand(t, "text", "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "APP_NAME")
	assert.Contains(t, out, "calc")
	assert.Contains(t, out, "editor")
	assert.Contains(t, out, "2 of 2 records")
}

func TestListFilter(t *testing.T) {
	dbPath := seedDatabase(t,
		ir.Row{ir.F("app_name", ir.NewString("calc")), ir.F("notes", ir.NewString("v1"))},
		ir.Row{ir.F("app_name", ir.NewString("editor")), ir.F("notes", ir.NewString("beta"))},
	)

	out, err := runListCommand(t, "text", "--db", dbPath, "--filter", "app_name=editor")
	require.NoError(t, err)
	assert.Contains(t, out, "editor")
	assert.NotContains(t, out, "calc")
	assert.Contains(t, out, "1 of 2 records")
}

func TestListFilter_NoMatchShowsTotal(t *testing.T) {
	dbPath := seedDatabase(t,
		ir.Row{ir.F("app_name", ir.NewString("calc"))},
		ir.Row{ir.F("app_name", ir.NewString("editor"))},
	)

	out, err := runListCommand(t, "text", "--db", dbPath, "--filter", "app_name=viewer")
	require.NoError(t, err)
	assert.Equal(t, "No records found (2 total).\n", out)
}

func TestListJSON(t *testing.T) {
	dbPath := seedDatabase(t,
		ir.Row{ir.F("app_name", ir.NewString("calc")), ir.F("notes", ir.NewString("v1"))},
	)

	out, err := runListCommand(t, "json", "--db", dbPath, "--filter", "status=1")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "calc", resp.Data[0]["app_name"])
	assert.Equal(t, float64(1), resp.Data[0]["status"])
}

func TestListEmpty(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runListCommand(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No records found (0 total).\n", out)
}

func TestListInvalidFilter(t *testing.T) {
	dbPath := seedDatabase(t)

	_, err := runListCommand(t, "text", "--db", dbPath, "--filter", "status=active")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, ExitStatus(err))
	assert.Contains(t, err.Error(), "expects an integer")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, CodeFilter, exitErr.Code)
	assert.Equal(t, []string{"status=active"}, exitErr.Details["filters"])
}

func TestParseFilters(t *testing.T) {
	filter, err := parseFilters(queryir.AppPackage, []string{"status=1", "app_name=calc=v2"})
	require.NoError(t, err)
	assert.Equal(t, ir.Row{
		ir.F("app_name", ir.String("calc=v2")),
		ir.F("status", ir.Int(1)),
	}, filter, "filters follow column order; values may contain '='")

	filter, err = parseFilters(queryir.AppPackage, nil)
	require.NoError(t, err)
	assert.Empty(t, filter)

	errorCases := map[string][]string{
		"no separator":   {"app_name"},
		"empty column":   {"=calc"},
		"unknown column": {"owner=me"},
		"duplicate":      {"id=1", "id=2"},
		"not integer":    {"id=one"},
	}
	for name, pairs := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := parseFilters(queryir.AppPackage, pairs)
			assert.Error(t, err)
		})
	}
}
