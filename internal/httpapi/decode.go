package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/schema"

	"github.com/roach88/toolserve/internal/dispatch"
	"github.com/roach88/toolserve/internal/ir"
	"github.com/roach88/toolserve/internal/queryir"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// record holds every app_package column. Absent fields stay nil so partial
// payloads (filters, updates) can be told apart from zero values.
type record struct {
	ID      *int64  `schema:"id" json:"id"`
	AppName *string `schema:"app_name" json:"app_name"`
	Notes   *string `schema:"notes" json:"notes"`
	Status  *int64  `schema:"status" json:"status"`
}

// insertForm is record without the key; ids are assigned by the store.
type insertForm struct {
	AppName *string `schema:"app_name"`
	Notes   *string `schema:"notes"`
	Status  *int64  `schema:"status"`
}

// deleteBody is the only shape DELETE accepts.
type deleteBody struct {
	ID *int64 `json:"id"`
}

// row converts the present fields into a Row in column order.
func (r record) row() ir.Row {
	row := ir.Row{}
	if r.ID != nil {
		row = append(row, ir.F("id", ir.NewInt(*r.ID)))
	}
	if r.AppName != nil {
		row = append(row, ir.F("app_name", ir.NewString(*r.AppName)))
	}
	if r.Notes != nil {
		row = append(row, ir.F("notes", ir.NewString(*r.Notes)))
	}
	if r.Status != nil {
		row = append(row, ir.F("status", ir.NewInt(*r.Status)))
	}
	return row
}

// decoder turns a request into the dispatch payload for its method.
type decoder struct {
	schema *schema.Decoder
}

func newDecoder() *decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(false)
	return &decoder{schema: d}
}

// Decode reads the payload for r.Method. The caller bounds r.Body. Methods without an operation
// decode to an empty payload and are rejected by the dispatcher.
func (d *decoder) Decode(r *http.Request) (ir.Row, error) {
	switch r.Method {
	case http.MethodGet:
		var filter record
		if err := d.decodeValues(&filter, r.URL.Query()); err != nil {
			return nil, err
		}
		return filter.row(), nil

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			return nil, dispatch.WrapError(dispatch.KindDecode, "unparseable form body", err)
		}
		var form insertForm
		if err := d.decodeValues(&form, r.PostForm); err != nil {
			return nil, err
		}
		return record{AppName: form.AppName, Notes: form.Notes, Status: form.Status}.row(), nil

	case http.MethodPut:
		var body record
		if err := decodeJSON(r, &body); err != nil {
			return nil, err
		}
		return body.row(), nil

	case http.MethodDelete:
		var body deleteBody
		if err := decodeJSON(r, &body); err != nil {
			return nil, err
		}
		return record{ID: body.ID}.row(), nil

	default:
		return ir.Row{}, nil
	}
}

// decodeValues maps query or form values onto dst. Unknown keys and values
// of the wrong type are validation errors; the request itself was readable.
func (d *decoder) decodeValues(dst any, values map[string][]string) error {
	if problems := checkValues(values); len(problems) > 0 {
		return dispatch.NewError(dispatch.KindValidation, strings.Join(problems, "; "))
	}
	if err := d.schema.Decode(dst, values); err != nil {
		return dispatch.WrapError(dispatch.KindValidation, describeSchemaError(err), err)
	}
	return nil
}

// checkValues rejects what gorilla/schema would accept silently: a repeated
// key (last value wins) and an empty integer (decoded as 0).
func checkValues(values map[string][]string) []string {
	var problems []string
	for key, vals := range values {
		if len(vals) > 1 {
			problems = append(problems, fmt.Sprintf("column %q given more than once", key))
			continue
		}
		col, known := queryir.AppPackage.Column(key)
		if known && col.Kind == ir.KindInt && len(vals) == 1 && vals[0] == "" {
			problems = append(problems, fmt.Sprintf("invalid value for %q: expected an integer", key))
		}
	}
	slices.Sort(problems)
	return problems
}

func describeSchemaError(err error) string {
	var multi schema.MultiError
	if !errors.As(err, &multi) {
		return err.Error()
	}

	problems := make([]string, 0, len(multi))
	for key, e := range multi {
		var unknown schema.UnknownKeyError
		var conv schema.ConversionError
		switch {
		case errors.As(e, &unknown):
			problems = append(problems, fmt.Sprintf("unknown column %q", key))
		case errors.As(e, &conv):
			problems = append(problems, fmt.Sprintf("invalid value for %q: expected %s", key, conv.Type))
		default:
			problems = append(problems, e.Error())
		}
	}
	slices.Sort(problems)
	return strings.Join(problems, "; ")
}

// decodeJSON reads exactly one JSON object from the body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return classifyJSONError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return dispatch.NewError(dispatch.KindDecode, "body must contain a single JSON object")
	}
	return nil
}

// unknownFieldPrefix starts the error encoding/json returns for a field
// rejected by DisallowUnknownFields.
const unknownFieldPrefix = "json: unknown field "

// classifyJSONError separates unreadable bodies (decode errors) from
// readable bodies with the wrong shape (validation errors).
func classifyJSONError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return dispatch.WrapError(dispatch.KindDecode, "empty body", err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return dispatch.WrapError(dispatch.KindDecode, "malformed JSON: unexpected end of body", err)
	case errors.As(err, &syntaxErr):
		return dispatch.WrapError(dispatch.KindDecode,
			fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset), err)
	case errors.As(err, &maxErr):
		return dispatch.WrapError(dispatch.KindDecode,
			fmt.Sprintf("body exceeds %d bytes", maxErr.Limit), err)
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return dispatch.WrapError(dispatch.KindDecode, "body must be a JSON object", err)
		}
		return dispatch.WrapError(dispatch.KindValidation,
			fmt.Sprintf("invalid value for %q: expected %s", typeErr.Field, typeErr.Type), err)
	case strings.HasPrefix(err.Error(), unknownFieldPrefix):
		// encoding/json has no typed error for DisallowUnknownFields.
		field := strings.TrimPrefix(err.Error(), unknownFieldPrefix)
		return dispatch.WrapError(dispatch.KindValidation, "unknown column "+field, err)
	default:
		return dispatch.WrapError(dispatch.KindDecode, "malformed JSON", err)
	}
}
