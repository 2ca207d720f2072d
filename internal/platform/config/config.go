package config

import (
	"fmt"
	"os"
)

// Server captures process-wide configuration. It is built once at startup
// and passed by reference into constructors; nothing mutates it afterwards.
type Server struct {
	Addr        string
	Version     string
	Environment string

	// LocalRoutingNum identifies the institution's own accounts. External
	// contacts must never carry it.
	LocalRoutingNum string

	// PublicKey is the PEM-encoded RSA public key used to verify bearer tokens.
	PublicKey []byte

	AccountsDBURI string

	// RedisURL enables the contact-list cache when set.
	RedisURL string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	addr := os.Getenv("CONTACTS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	localRouting := os.Getenv("LOCAL_ROUTING_NUM")
	if localRouting == "" {
		return Server{}, fmt.Errorf("LOCAL_ROUTING_NUM is required")
	}

	pubKeyPath := os.Getenv("PUB_KEY_PATH")
	if pubKeyPath == "" {
		return Server{}, fmt.Errorf("PUB_KEY_PATH is required")
	}
	publicKey, err := os.ReadFile(pubKeyPath)
	if err != nil {
		return Server{}, fmt.Errorf("read public key: %w", err)
	}

	return Server{
		Addr:            addr,
		Version:         os.Getenv("VERSION"),
		Environment:     os.Getenv("ENVIRONMENT"),
		LocalRoutingNum: localRouting,
		PublicKey:       publicKey,
		AccountsDBURI:   os.Getenv("ACCOUNTS_DB_URI"),
		RedisURL:        os.Getenv("REDIS_URL"),
	}, nil
}
