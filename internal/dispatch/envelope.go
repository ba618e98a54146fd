package dispatch

import (
	"encoding/json"
	"time"

	"github.com/roach88/toolserve/internal/ir"
)

// TimeLayout formats Envelope.Time.
const TimeLayout = "2006-01-02 15:04:05"

// Envelope is the response body of every successful request.
type Envelope struct {
	Rows    []ir.Row  // Selected rows; empty for writes
	Time    time.Time // When the request was dispatched
	Message string    // Request method
}

// MarshalJSON encodes the envelope as {"data": [...], "time": "...", "message": "..."}.
// data is always an array, never null.
func (e Envelope) MarshalJSON() ([]byte, error) {
	rows := e.Rows
	if rows == nil {
		rows = []ir.Row{}
	}
	return json.Marshal(struct {
		Data    []ir.Row `json:"data"`
		Time    string   `json:"time"`
		Message string   `json:"message"`
	}{
		Data:    rows,
		Time:    e.Time.Format(TimeLayout),
		Message: e.Message,
	})
}
