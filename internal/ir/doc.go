// Package ir provides the typed values and ordered rows that flow between the
// HTTP layer, the statement compiler and the record store.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types - numeric columns are int64
//   - Rows keep column order; JSON encoding preserves it
//   - String values are NFC normalized so exact-match filters are stable
package ir
