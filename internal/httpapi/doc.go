// Package httpapi serves the app_package resource over HTTP.
//
// One path accepts four methods. Each request payload is decoded according
// to its method, typed against the app_package columns, and handed to the
// dispatcher:
//
//	GET     query string   -> select, payload is the filter
//	POST    form body      -> insert
//	PUT     JSON body      -> update, "id" required
//	DELETE  JSON {"id": n} -> soft delete
//
// Successful requests answer 200 with the dispatch envelope. Failures answer
// with {"error": "...", "code": "..."} and a status derived from the error
// kind.
package httpapi
