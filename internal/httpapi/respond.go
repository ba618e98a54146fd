package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/toolserve/internal/dispatch"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error string        `json:"error"`
	Code  dispatch.Kind `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError answers with the status of err's kind. Only the client-facing
// message is written; wrapped causes stay in the logs.
func writeError(w http.ResponseWriter, err error) {
	kind := dispatch.KindOf(err)
	msg := "internal error"
	var de *dispatch.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	if kind == dispatch.KindUnsupportedMethod {
		w.Header().Set("Allow", allowHeader)
	}
	writeJSON(w, kind.Status(), errorBody{Error: msg, Code: kind})
}
