package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	issuerURLVar  = "ISSUER_URL"
	redisAddrVar  = "REDIS_ADDR"
	seedFileVar   = "SEED_FILE"
	signingKeyVar = "SIGNING_KEY_PEM"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Nexus Identity")
}

// GetIssuerURL returns the base URL of the server, used as the token
// issuer and in the discovery document.
func (EnvVars) GetIssuerURL() string {
	return GetEnv(issuerURLVar, "http://localhost:8080")
}

// GetRedisAddr returns the redis address for shared lockout counters and
// refresh tokens. Empty means in-process stores.
func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

// GetSeedFile returns the path of the YAML file describing the clients,
// scopes and users to register at startup.
func (EnvVars) GetSeedFile() string {
	return GetEnv(seedFileVar, "./seed.yaml")
}

// GetSigningKeyPEM returns a PEM-encoded RSA private key to sign tokens
// with. Empty means generate an ephemeral key at startup; injected
// configuration, never a constant compiled into the binary.
func (EnvVars) GetSigningKeyPEM() string {
	return GetEnv(signingKeyVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
