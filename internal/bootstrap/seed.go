// Package bootstrap registers the clients, scopes and users a fresh
// deployment starts with, from a YAML seed file. Seeding is idempotent:
// existing registrations keep their stored state.
package bootstrap

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	clientspkg "github.com/nexusweb/go-identity-server/clients"
	scopespkg "github.com/nexusweb/go-identity-server/scopes"
	userspkg "github.com/nexusweb/go-identity-server/users"
)

// SeedFile is the YAML shape of a seed file.
type SeedFile struct {
	Clients []SeedClient `yaml:"clients"`
	Scopes  []SeedScope  `yaml:"scopes"`
	Users   []SeedUser   `yaml:"users"`
}

type SeedClient struct {
	ID                     string   `yaml:"id"`
	DisplayName            string   `yaml:"display_name"`
	Type                   string   `yaml:"type"`
	Secret                 string   `yaml:"secret"`
	RedirectURIs           []string `yaml:"redirect_uris"`
	PostLogoutRedirectURIs []string `yaml:"post_logout_redirect_uris"`
	Permissions            []string `yaml:"permissions"`
}

type SeedScope struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Resources   []string `yaml:"resources"`
}

type SeedUser struct {
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Email    string   `yaml:"email"`
	Roles    []string `yaml:"roles"`
}

// Load parses a seed file from disk. A missing file is not an error: the
// deployment simply starts empty.
func Load(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SeedFile{}, nil
		}
		return nil, errors.Wrap(err, "[bootstrap.Load] read seed file")
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, errors.Wrap(err, "[bootstrap.Load] parse seed file")
	}
	return &seed, nil
}

// Repos holds the registries seeding writes to.
type Repos struct {
	Clients clientspkg.Repo
	Scopes  scopespkg.Repo
	Users   userspkg.Repo
}

// Seed applies the file to the given repos.
func Seed(ctx context.Context, seed *SeedFile, repos Repos) error {
	for _, c := range seed.Clients {
		existing, err := repos.Clients.Get(ctx, c.ID)
		if err == nil && existing != nil {
			continue
		}
		client := &clientspkg.Client{
			ID:                     c.ID,
			DisplayName:            c.DisplayName,
			Type:                   clientspkg.ClientType(c.Type),
			Secret:                 c.Secret,
			RedirectURIs:           c.RedirectURIs,
			PostLogoutRedirectURIs: c.PostLogoutRedirectURIs,
			Permissions:            c.Permissions,
		}
		if client.Type == "" {
			client.Type = clientspkg.ClientTypeConfidential
		}
		if err := repos.Clients.Upsert(ctx, client); err != nil {
			return errors.Wrapf(err, "[bootstrap.Seed] client %s", c.ID)
		}
		log.Info().Str("client_id", c.ID).Msg("seeded client application")
	}

	for _, s := range seed.Scopes {
		if _, err := repos.Scopes.Get(ctx, s.Name); err == nil {
			continue
		}
		if err := repos.Scopes.Upsert(ctx, &scopespkg.Scope{
			Name:        s.Name,
			DisplayName: s.DisplayName,
			Resources:   s.Resources,
		}); err != nil {
			return errors.Wrapf(err, "[bootstrap.Seed] scope %s", s.Name)
		}
		log.Info().Str("scope", s.Name).Msg("seeded scope registration")
	}

	for _, u := range seed.Users {
		if existing, err := repos.Users.GetByUsername(ctx, u.Username); err == nil && existing != nil {
			continue
		}
		hash, err := userspkg.HashPassword(u.Password)
		if err != nil {
			return errors.Wrapf(err, "[bootstrap.Seed] hash password for %s", u.Username)
		}
		if err := repos.Users.Upsert(ctx, &userspkg.User{
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: hash,
			Roles:        u.Roles,
		}); err != nil {
			return errors.Wrapf(err, "[bootstrap.Seed] user %s", u.Username)
		}
		log.Info().Str("username", u.Username).Msg("seeded user account")
	}

	return nil
}
