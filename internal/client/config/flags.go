package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/flagx"
)

// parseFlags overlays selected fields from command-line flags:
//
//	-a string   gateway address:port
//	-t int      request timeout (seconds)
//	-d string   local database path
//	-b string   collections backend (grpc|postgres)
//	-p string   postgres DSN
//	-n int      page size
//	-l string   log level
//
// Only these flags are read from os.Args; a malformed value panics.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-d", "-b", "-p", "-n", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the gateway")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.CollectionsBackend, "b", cfg.CollectionsBackend, "collections backend: grpc or postgres")
	fs.StringVar(&cfg.PostgresDSN, "p", cfg.PostgresDSN, "postgres DSN for the postgres backend")
	fs.IntVar(&cfg.PageSize, "n", cfg.PageSize, "page size")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
