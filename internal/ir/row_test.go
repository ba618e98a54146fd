package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowMarshalJSON_PreservesOrder(t *testing.T) {
	row := Row{
		F("id", Int(1)),
		F("app_name", String("calc")),
		F("notes", String("v1")),
		F("status", Int(1)),
	}

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"app_name":"calc","notes":"v1","status":1}`, string(b))
}

func TestRowMarshalJSON_Empty(t *testing.T) {
	b, err := json.Marshal(Row{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}

func TestRowMarshalJSON_InSlice(t *testing.T) {
	rows := []Row{
		{F("id", Int(1))},
		{F("id", Int(2)), F("notes", Null{})},
	}
	b, err := json.Marshal(rows)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1},{"id":2,"notes":null}]`, string(b))
}

func TestRowGet(t *testing.T) {
	row := Row{F("id", Int(9)), F("notes", String("n"))}

	v, ok := row.Get("notes")
	require.True(t, ok)
	assert.Equal(t, String("n"), v)

	_, ok = row.Get("status")
	assert.False(t, ok)
}

func TestRowWithout(t *testing.T) {
	row := Row{F("id", Int(9)), F("notes", String("n")), F("status", Int(0))}

	rest, id, ok := row.Without("id")
	require.True(t, ok)
	assert.Equal(t, Int(9), id)
	assert.Equal(t, []string{"notes", "status"}, rest.Columns())

	// Receiver untouched
	assert.Equal(t, []string{"id", "notes", "status"}, row.Columns())

	same, _, ok := rest.Without("id")
	assert.False(t, ok)
	assert.Equal(t, rest, same)
}
