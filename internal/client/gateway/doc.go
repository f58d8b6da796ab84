// Package gateway defines the contracts the client consumes from the remote
// service: an identity gateway (sign-up, sign-in, sign-out, "who am I") and a
// collection gateway (filtered, sorted, paginated reads and single-row
// writes against named collections).
//
// # Error Handling
//
// Rejected calls surface as *Error carrying a Code and the gateway-supplied
// message. Callers match codes with errors.Is against ErrUnauthorized,
// ErrInvalid, ErrNotFound, ErrUnavailable. A call that succeeds without a
// usable payload returns ErrEmptyResult.
//
// Implementations live in sub-packages: grpcgw (gRPC transport) and pggw
// (direct Postgres access for collections).
package gateway
