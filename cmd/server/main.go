package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nexusweb/go-identity-server/auth"
	"github.com/nexusweb/go-identity-server/auth/lockout"
	"github.com/nexusweb/go-identity-server/authz"
	authzinmemory "github.com/nexusweb/go-identity-server/authz/inmemory"
	"github.com/nexusweb/go-identity-server/claims"
	clientsinmemory "github.com/nexusweb/go-identity-server/clients/inmemory"
	"github.com/nexusweb/go-identity-server/internal/bootstrap"
	"github.com/nexusweb/go-identity-server/internal/config"
	scopesinmemory "github.com/nexusweb/go-identity-server/scopes/inmemory"
	"github.com/nexusweb/go-identity-server/server"
	"github.com/nexusweb/go-identity-server/token"
	"github.com/nexusweb/go-identity-server/token/refresh"
	usersinmemory "github.com/nexusweb/go-identity-server/users/inmemory"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	handler, err := buildServer(c)
	if err != nil {
		return fmt.Errorf("buildServer: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// buildServer wires the stores, the grant pipeline and the HTTP layer.
func buildServer(c config.Config) (*server.Server, error) {
	ctx := context.Background()

	userRepo := usersinmemory.New()
	clientRepo := clientsinmemory.New()
	scopeRepo := scopesinmemory.New()
	authzStore := authzinmemory.New()
	codeStore := authz.NewCodeStore(c.GetAuthCodeTimeout(), c.GetDeviceCodeTimeout())

	var lockoutStore lockout.Store
	var refreshRepo refresh.Repo
	if addr := c.GetRedisAddr(); addr != "" {
		client := rdb.NewClient(&rdb.Options{Addr: addr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		lockoutStore = lockout.NewRedisStore(client, "lockout:")
		refreshRepo = refresh.NewRedisRepo(client, "rt:")
		log.Info().Str("addr", addr).Msg("using redis-backed stores")
	} else {
		lockoutStore = lockout.NewMemoryStore()
		refreshRepo = refresh.NewInMemoryRepo()
	}

	seed, err := bootstrap.Load(c.GetSeedFile())
	if err != nil {
		return nil, err
	}
	if err := bootstrap.Seed(ctx, seed, bootstrap.Repos{
		Clients: clientRepo,
		Scopes:  scopeRepo,
		Users:   userRepo,
	}); err != nil {
		return nil, err
	}

	keyPair, err := loadOrGenerateKeyPair(c)
	if err != nil {
		return nil, err
	}
	signer := token.NewKeyPairSigner(keyPair)

	refreshManager, err := refresh.NewManager(refreshRepo, c.GetRefreshTokenExpiry())
	if err != nil {
		return nil, err
	}

	issuer, err := token.NewIssuer(signer, c.GetIssuerURL(),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetIDTokenExpiry()),
		token.WithAudience(c.GetIssuerURL()),
		token.WithRefreshManager(refreshManager),
	)
	if err != nil {
		return nil, err
	}

	lockoutPolicy, err := lockout.NewPolicy(lockoutStore, c.GetLockoutMaxAttempts(), c.GetLockoutWindow())
	if err != nil {
		return nil, err
	}

	passwordGrant, err := auth.NewPasswordGrant(userRepo, clientRepo, lockoutPolicy)
	if err != nil {
		return nil, err
	}
	reauthGrant, err := auth.NewReauthenticationGrant(userRepo, authzStore, codeStore, refreshManager)
	if err != nil {
		return nil, err
	}
	clientCredentialsGrant, err := auth.NewClientCredentialsGrant(clientRepo)
	if err != nil {
		return nil, err
	}
	router := auth.NewRouter(passwordGrant, reauthGrant, clientCredentialsGrant)

	assembler, err := claims.NewAssembler(scopeRepo)
	if err != nil {
		return nil, err
	}

	tokenService, err := auth.NewTokenService(router, assembler, issuer)
	if err != nil {
		return nil, err
	}
	deviceService, err := auth.NewDeviceService(clientRepo, authzStore, codeStore, passwordGrant)
	if err != nil {
		return nil, err
	}

	return server.New(c, server.Services{
		Tokens:  tokenService,
		Device:  deviceService,
		Issuer:  issuer,
		Refresh: refreshManager,
		Users:   userRepo,
		Clients: clientRepo,
	})
}

// loadOrGenerateKeyPair loads the configured RSA signing key, or generates
// an ephemeral one. Ephemeral keys invalidate all outstanding tokens on
// restart, which is acceptable outside production.
func loadOrGenerateKeyPair(c config.Config) (*token.KeyPair, error) {
	keyID := uuid.New().String()
	if pem := c.GetSigningKeyPEM(); pem != "" {
		return token.LoadKeyPairFromPEM(keyID, pem)
	}
	log.Warn().Msg("no signing key configured, generating an ephemeral RSA key")
	return token.GenerateRSAKeyPair(keyID, 2048)
}

func configureLogging(c config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
