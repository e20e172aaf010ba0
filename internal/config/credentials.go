package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"

	"github.com/amishk599/jobdigest/internal/model"
)

// KeyringService groups jobdigest secrets in the OS keychain.
const KeyringService = "jobdigest"

// Credentials holds every secret a run may need. Fields for disabled
// sources or unused notifiers stay empty.
type Credentials struct {
	GoogleAPIKey    string
	GoogleCSEID     string
	AdzunaAppID     string
	AdzunaAppKey    string
	EmailAddress    string
	EmailPassword   string
	SlackWebhookURL string
}

// keyringGet is swapped in tests.
var keyringGet = keyring.Get

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// LoadCredentials reads the secrets required by cfg from the environment.
// When withNotifier is false the notifier's secrets are not required.
// EMAIL_PASSWORD falls back to the OS keychain entry for EMAIL_ADDRESS.
// Every missing variable is reported in one *model.MissingCredentialsError.
func LoadCredentials(cfg *Config, withNotifier bool) (Credentials, error) {
	creds := Credentials{
		GoogleAPIKey:    env("GOOGLE_API_KEY"),
		GoogleCSEID:     env("GOOGLE_CSE_ID"),
		AdzunaAppID:     env("ADZUNA_APP_ID"),
		AdzunaAppKey:    env("ADZUNA_APP_KEY"),
		EmailAddress:    env("EMAIL_ADDRESS"),
		EmailPassword:   env("EMAIL_PASSWORD"),
		SlackWebhookURL: cfg.Notification.WebhookURL,
	}
	if creds.SlackWebhookURL == "" {
		creds.SlackWebhookURL = env("SLACK_WEBHOOK_URL")
	}

	var missing []string
	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	if cfg.Sources.Google.Enabled {
		require("GOOGLE_API_KEY", creds.GoogleAPIKey)
		require("GOOGLE_CSE_ID", creds.GoogleCSEID)
	}
	if cfg.Sources.Adzuna.Enabled {
		require("ADZUNA_APP_ID", creds.AdzunaAppID)
		require("ADZUNA_APP_KEY", creds.AdzunaAppKey)
	}

	if withNotifier {
		switch cfg.Notification.Type {
		case "email":
			if creds.EmailPassword == "" && creds.EmailAddress != "" {
				if pw, err := keyringGet(KeyringService, creds.EmailAddress); err == nil {
					creds.EmailPassword = strings.TrimSpace(pw)
				}
			}
			require("EMAIL_ADDRESS", creds.EmailAddress)
			require("EMAIL_PASSWORD", creds.EmailPassword)
		case "slack":
			require("SLACK_WEBHOOK_URL", creds.SlackWebhookURL)
		}
	}

	if len(missing) > 0 {
		return creds, &model.MissingCredentialsError{Names: missing}
	}
	return creds, nil
}

// SetEmailPassword stores the SMTP password for address in the OS keychain.
func SetEmailPassword(address, password string) error {
	if strings.TrimSpace(address) == "" {
		return errors.New("email address is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, address, password)
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
