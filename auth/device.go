package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nexusweb/go-identity-server/authz"
	clientspkg "github.com/nexusweb/go-identity-server/clients"
	"github.com/nexusweb/go-identity-server/oauth2"
)

// DeviceService runs the device-authorization flow: a device requests a
// code pair, the user approves the pending authorization with explicit
// credentials, and the device exchanges its device code at the token
// endpoint.
type DeviceService struct {
	clients        clientspkg.Repo
	authorizations authz.Store
	codes          *authz.CodeStore
	password       *PasswordGrant
}

func NewDeviceService(clientRepo clientspkg.Repo, store authz.Store, codes *authz.CodeStore, password *PasswordGrant) (*DeviceService, error) {
	if clientRepo == nil {
		return nil, errors.New("[NewDeviceService] client repo is required")
	}
	if store == nil {
		return nil, errors.New("[NewDeviceService] authorization store is required")
	}
	if codes == nil {
		return nil, errors.New("[NewDeviceService] code store is required")
	}
	if password == nil {
		return nil, errors.New("[NewDeviceService] password validator is required")
	}
	return &DeviceService{
		clients:        clientRepo,
		authorizations: store,
		codes:          codes,
		password:       password,
	}, nil
}

// Begin creates a pending authorization for the client and mints its
// device-code / user-code pair.
func (s *DeviceService) Begin(ctx context.Context, clientID string, scopes []string) (deviceCode, userCode string, err error) {
	client, err := s.clients.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, clientspkg.ErrNotFound) {
			return "", "", Configurationf("client %q is not registered", clientID)
		}
		return "", "", errors.Wrap(err, "[DeviceService.Begin] Get client")
	}
	if !client.AllowsGrantType(oauth2.DeviceCodeGrant) {
		return "", "", InvalidGrant(DescInvalidClient)
	}
	if _, ok := disallowedScope(client, scopes); ok {
		return "", "", InvalidScope(DescScopeNotAllowed)
	}

	a := &authz.Authorization{
		ClientID: clientID,
		Scopes:   append([]string(nil), scopes...),
		Status:   authz.StatusPending,
	}
	if err := s.authorizations.Create(ctx, a); err != nil {
		return "", "", errors.Wrap(err, "[DeviceService.Begin] Create authorization")
	}

	deviceCode, userCode, err = s.codes.IssueDeviceCode(a.ID)
	if err != nil {
		return "", "", errors.Wrap(err, "[DeviceService.Begin] IssueDeviceCode")
	}
	return deviceCode, userCode, nil
}

// Approve binds a pending device authorization to the user identified by
// the supplied credentials. The credential check runs through the same
// lockout-guarded validator as the password grant.
func (s *DeviceService) Approve(ctx context.Context, userCode, username, password string) error {
	user, err := s.password.Validate(ctx, username, password)
	if err != nil {
		return err
	}

	id, err := s.codes.LookupUserCode(userCode)
	if err != nil {
		return InvalidGrant(DescTokenNoLongerValid)
	}

	a, err := s.authorizations.Get(ctx, id)
	if err != nil {
		return InvalidGrant(DescTokenNoLongerValid)
	}
	if a.Status != authz.StatusPending {
		return InvalidGrant(DescTokenNoLongerValid)
	}

	a.Subject = user.ID
	a.Status = authz.StatusValid
	if err := s.authorizations.Update(ctx, a); err != nil {
		return errors.Wrap(err, "[DeviceService.Approve] Update authorization")
	}
	return nil
}
