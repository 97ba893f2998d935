package secrets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"

	"talent-pipeline/internal/config"
)

const (
	// KeyringService groups the app's secrets in the OS keychain.
	KeyringService = "talent-pipeline"
)

var ErrNoPassword = errors.New("portal password not found (set it with `talentpipe secret set`)")

func GetPortalPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", ErrNoPassword
}

func SetPortalPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeletePortalPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// PortalKeyringAccount names the keychain entry for the configured portal
// user. Empty when no username is configured.
func PortalKeyringAccount(cfg config.Config) string {
	if strings.TrimSpace(cfg.Scrape.Username) == "" {
		return ""
	}
	return fmt.Sprintf("talent-pipeline:portal:%s", cfg.Scrape.Username)
}

// BasicAuth returns the portal credentials, or nil when scraping is
// anonymous.
func BasicAuth(cfg config.Config) (*url.Userinfo, error) {
	account := PortalKeyringAccount(cfg)
	if account == "" {
		return nil, nil
	}
	pw, err := GetPortalPassword(account)
	if err != nil {
		return nil, err
	}
	return url.UserPassword(cfg.Scrape.Username, pw), nil
}
