// Package client talks to the wsdrive HTTP API on behalf of the CLI.
//
// Client is the transport-agnostic contract; HTTPClient implements it over
// net/http with a bearer token. Error responses are mapped to sentinel errors
// so callers can use errors.Is: ErrUnavailable for transport failures,
// ErrUnauthorized for 401, and the common package's NotFound, Conflict,
// Forbidden and Validation errors for the matching statuses. The server's
// error message is kept in the wrapped text.
package client
