// Package client is the CLI's transport to the TaskKeeper HTTP API.
//
// HTTPClient keeps the bearer token returned by Login and attaches it to
// every authenticated call. Non-2xx responses are mapped onto the sentinel
// errors in internal/common, so callers match them with errors.Is exactly
// as the server-side code does. Transport failures and 5xx responses
// match ErrUnavailable.
package client
