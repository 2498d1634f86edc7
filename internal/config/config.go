package config

type Config interface {
	EnvConfig
	OAuthConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetIssuerURL() string
	GetRedisAddr() string
	GetSeedFile() string
	GetSigningKeyPEM() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	OAuth
	Security
}

func New() Config {
	return mainConfig{}
}
