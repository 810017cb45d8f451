package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/flagx"
)

var serverFlags = []string{
	"-a", "-m", "-l", "-k", "-d", "-f", "-n", "-x", "-o", "-s",
	"-u", "-p", "-b", "-g", "-e",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-m string   gRPC health bind address
//	-l string   log level
//	-k string   store backend: postgres | bunt
//	-d string   PostgreSQL DSN
//	-f string   buntdb path (":memory:" for an ephemeral store)
//	-n string   table name
//	-x int      authorizer cache ttl, seconds (0 disables)
//	-o string   comma-separated authorized route families
//	-s string   private key sealing passphrase
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// Only the flags above are considered (flagx.FilterArgs), so control CLI
// subcommands and their own flags pass through untouched.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.GRPCHealthAddr, "m", config.GRPCHealthAddr, "gRPC health address and port")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.StoreBackend, "k", config.StoreBackend, "store backend (postgres|bunt)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BuntPath, "f", config.BuntPath, "buntdb path")
	fs.StringVar(&config.TableName, "n", config.TableName, "table name")

	authCacheTTL := fs.Int("x", int(config.AuthCacheTTL.Seconds()), "authorizer cache ttl (in seconds)")
	routes := fs.String("o", strings.Join(config.AuthorizedRoutes, ","), "authorized route families")

	fs.StringVar(&config.KeyPassphrase, "s", config.KeyPassphrase, "private key passphrase")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AuthCacheTTL = time.Duration(*authCacheTTL) * time.Second
	config.AuthorizedRoutes = splitList(*routes)
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
