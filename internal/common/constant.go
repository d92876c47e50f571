// Package common contains shared constants and sentinel errors used across
// authkeeper components.
package common

// AccessTokenHeaderName is the HTTP header used to carry the session token
// on requests to protected endpoints.
const AccessTokenHeaderName = "x-auth-token"

// BearerPrefix is accepted in the Authorization header as an alternative to
// AccessTokenHeaderName.
const BearerPrefix = "Bearer "
