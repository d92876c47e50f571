// Package client talks to the authkeeper HTTP API on behalf of the CLI.
//
// HTTPClient keeps the session token returned by Register or Login and sends
// it in the x-auth-token header on later calls. Failures are reported as
// ErrUnavailable (transport), ErrUnauthorized (401) or *APIError (any other
// non-2xx answer); match them with errors.Is / errors.As.
package client
