package authz

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

const (
	codeBytes      = 32 // 256 bits of entropy per code
	userCodeLength = 8
	// Characters for user codes: no vowels or lookalikes, so codes stay
	// short, unambiguous and never spell anything.
	userCodeAlphabet = "BCDFGHJKLMNPQRSTVWXZ"
)

// CodeStore issues and redeems the short-lived codes that reference
// authorizations: authorization codes and device/user code pairs. Codes are
// single use; redeeming one removes it. Backed by a TTL cache, so expired
// codes vanish without a sweeper goroutine.
type CodeStore struct {
	authCodes   *gocache.Cache // code -> authorization ID
	deviceCodes *gocache.Cache // device code -> authorization ID
	userCodes   *gocache.Cache // user code -> authorization ID
}

// NewCodeStore creates a CodeStore with the given lifetimes for
// authorization codes and device codes.
func NewCodeStore(authCodeTTL, deviceCodeTTL time.Duration) *CodeStore {
	return &CodeStore{
		authCodes:   gocache.New(authCodeTTL, authCodeTTL),
		deviceCodes: gocache.New(deviceCodeTTL, deviceCodeTTL),
		userCodes:   gocache.New(deviceCodeTTL, deviceCodeTTL),
	}
}

// IssueAuthorizationCode mints a single-use authorization code bound to the
// given authorization.
func (cs *CodeStore) IssueAuthorizationCode(authorizationID string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", errors.Wrap(err, "[CodeStore.IssueAuthorizationCode] rand")
	}
	cs.authCodes.SetDefault(code, authorizationID)
	return code, nil
}

// RedeemAuthorizationCode consumes a code, returning the authorization it
// was bound to. A second redemption of the same code fails.
func (cs *CodeStore) RedeemAuthorizationCode(code string) (string, error) {
	id, ok := cs.authCodes.Get(code)
	if !ok {
		return "", ErrNotFound
	}
	cs.authCodes.Delete(code)
	return id.(string), nil
}

// IssueDeviceCode mints a device-code / user-code pair bound to the given
// authorization. The device code is high-entropy and polled by the device;
// the user code is short and typed by the user during approval.
func (cs *CodeStore) IssueDeviceCode(authorizationID string) (deviceCode, userCode string, err error) {
	deviceCode, err = randomCode()
	if err != nil {
		return "", "", errors.Wrap(err, "[CodeStore.IssueDeviceCode] rand")
	}
	userCode, err = randomUserCode()
	if err != nil {
		return "", "", errors.Wrap(err, "[CodeStore.IssueDeviceCode] rand user code")
	}
	cs.deviceCodes.SetDefault(deviceCode, authorizationID)
	cs.userCodes.SetDefault(userCode, authorizationID)
	return deviceCode, userCode, nil
}

// LookupDeviceCode resolves a device code without consuming it: a pending
// device authorization is polled repeatedly until approved or expired.
func (cs *CodeStore) LookupDeviceCode(deviceCode string) (string, error) {
	id, ok := cs.deviceCodes.Get(deviceCode)
	if !ok {
		return "", ErrNotFound
	}
	return id.(string), nil
}

// ConsumeDeviceCode removes a device code after a successful exchange.
func (cs *CodeStore) ConsumeDeviceCode(deviceCode string) {
	cs.deviceCodes.Delete(deviceCode)
}

// LookupUserCode resolves a user code during device approval. User codes
// are compared case-insensitively and may carry a hyphen separator.
func (cs *CodeStore) LookupUserCode(userCode string) (string, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(userCode, "-", ""))
	id, ok := cs.userCodes.Get(normalized)
	if !ok {
		return "", ErrNotFound
	}
	cs.userCodes.Delete(normalized)
	return id.(string), nil
}

func randomCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func randomUserCode() (string, error) {
	b := make([]byte, userCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := make([]byte, userCodeLength)
	for i, v := range b {
		code[i] = userCodeAlphabet[int(v)%len(userCodeAlphabet)]
	}
	return string(code), nil
}
