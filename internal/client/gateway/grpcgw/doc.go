// Package grpcgw implements the identity and collection gateways over gRPC.
//
// Messages are google.protobuf.Struct values exchanged on the
// bulletin.gateway.v1.Gateway service, so no generated stubs are needed:
//
//	/bulletin.gateway.v1.Gateway/SignInWithPassword  {email, password} -> {session, user}
//	/bulletin.gateway.v1.Gateway/Select              {collection, query} -> {rows}
//
// The client keeps the access/refresh token pair it received at sign-in and
// attaches the access token to every call. An expired token is refreshed
// once, either up front (exp claim already in the past) or after the server
// answers Unauthenticated with "token expired".
package grpcgw
