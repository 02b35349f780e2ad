package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/flagx"
)

// parseFlags applies the command-line flags handled by the server:
//
//	-a string   HTTP bind address
//	-q string   gRPC bind address
//	-m string   metrics bind address
//	-d string   PostgreSQL DSN
//	-s string   access token secret
//	-t int      access token ttl, minutes
//	-k string   email registration token secret
//	-v int      email registration token ttl, minutes
//	-x string   token store (postgres|redis)
//	-l string   log level
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// Other arguments are filtered out with flagx.FilterArgs first.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-a", "-q", "-m", "-d", "-s", "-t", "-k", "-v", "-x", "-l", "-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address")
	fs.StringVar(&config.EndpointAddrGRPC, "q", config.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&config.EndpointAddrMetrics, "m", config.EndpointAddrMetrics, "metrics address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	accessTTL := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token ttl (in minutes)")
	fs.StringVar(&config.RegistrationTokenSecret, "k", config.RegistrationTokenSecret, "email registration token secret")
	registrationTTL := fs.Int("v", int(config.RegistrationTokenTTL.Minutes()), "email registration token ttl (in minutes)")
	fs.StringVar(&config.TokenStore, "x", config.TokenStore, "token store: postgres or redis")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// ttl flags only win when given explicitly, so sub-minute values from
	// the file or environment survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenTTL = time.Duration(*accessTTL) * time.Minute
		case "v":
			config.RegistrationTokenTTL = time.Duration(*registrationTTL) * time.Minute
		}
	})
	return nil
}
