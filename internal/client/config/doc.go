// Package config loads runtime configuration for the bulletin client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. BULLETIN_* environment variables (go-envconfig).
//  3. Optional JSON file selected with -c or -config; comments are allowed.
//  4. Command-line flags, which override everything above.
//
// # JSON schema
//
// Durations accept "10s" or integer nanoseconds:
//
//	{
//	  // gateway
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "collections_backend": "grpc",
//	  "page_size": 12
//	}
package config
