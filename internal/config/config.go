// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON config file,
// and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string

	// TokenSecret is the process-wide signing secret for access tokens.
	// Rotating it invalidates every previously issued token.
	TokenSecret string

	// TokenTTL bounds the validity of issued tokens. Zero (the default)
	// means tokens never expire; that matches the original contract and is
	// a deliberate configuration choice, not an oversight.
	TokenTTL time.Duration

	// StoreTimeout bounds every database call made while serving a request.
	StoreTimeout time.Duration

	// ListLimit caps GET /api/user listings when the caller supplies no
	// limit parameter; 0 keeps listings unbounded.
	ListLimit int

	// AllowedOrigins lists the CORS origins permitted to call the API.
	AllowedOrigins []string

	// Config is the path to the config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Address, "a", ":8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.TokenSecret, "s", "", "access token signing secret")
	flag.DurationVar(&options.TokenTTL, "ttl", 0, "access token lifetime (0 = no expiry)")
	flag.DurationVar(&options.StoreTimeout, "store-timeout", 3*time.Second, "per-request database call timeout")
	flag.IntVar(&options.ListLimit, "list-limit", 0, "default page size for user listings (0 = unbounded)")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags, config file, and environment variables
// to set configuration values. Environment variables win over the file, the
// file over flags. It returns a pointer to the Options struct containing the
// parsed configuration values.
func Parse() *Options {
	flag.Parse()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Address = serverAddress
	}
	if port := os.Getenv("PORT"); port != "" {
		options.Address = ":" + port
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := os.Getenv("ACCESS_TOKEN_SECRET"); secret != "" {
		options.TokenSecret = secret
	}
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			log.Fatalf("invalid TOKEN_TTL: %v", err)
		}
		options.TokenTTL = d
	}
	if timeout := os.Getenv("STORE_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			log.Fatalf("invalid STORE_TIMEOUT: %v", err)
		}
		options.StoreTimeout = d
	}
	if limit := os.Getenv("LIST_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			log.Fatalf("invalid LIST_LIMIT: %v", err)
		}
		options.ListLimit = n
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		options.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				options.AllowedOrigins = append(options.AllowedOrigins, o)
			}
		}
	}
	if len(options.AllowedOrigins) == 0 {
		options.AllowedOrigins = []string{"*"}
	}

	return options
}
