// Package dispatch maps an HTTP method and its decoded payload to exactly
// one record store operation and returns the response envelope.
//
//	GET    → Select     (payload is the filter)
//	POST   → Insert     (payload is the new record)
//	PUT    → Update     (payload is the record; must carry "id")
//	DELETE → SoftDelete (payload must be exactly {"id": <int>})
//
// Every request gets its own Envelope value; nothing is shared between
// requests. Failures are returned as *Error with a Kind that the HTTP layer
// maps to a status code.
package dispatch
