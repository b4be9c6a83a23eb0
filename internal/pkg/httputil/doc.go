// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Every handler should use these helpers instead of writing raw
// http.ResponseWriter calls. This keeps content negotiation (JSON by
// default, XML on request), error envelopes, and logging consistent across
// all endpoints.
package httputil
