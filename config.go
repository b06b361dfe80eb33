package ddns

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadConfig.
const (
	EnvAPIToken = "CLOUDFLARE_API_KEY"
	EnvZoneID   = "CLOUDFLARE_ZONE_ID"
	EnvRecordID = "CLOUDFLARE_RECORD_ID"
	EnvDomain   = "DOMAIN_NAME"
)

// Config identifies the record to keep updated and the credential used to do it.
// It is built once at startup and not modified afterwards.
type Config struct {
	APIToken string
	ZoneID   string
	RecordID string
	Domain   string
}

// String omits the API token.
func (c Config) String() string {
	return fmt.Sprintf("{ZoneID:%s RecordID:%s Domain:%s}", c.ZoneID, c.RecordID, c.Domain)
}

// LoadConfig reads the configuration from the process environment.
//
// Variables are first loaded from the given env files,
// or from ".env" in the working directory when none are given.
// A missing ".env" is ignored; a missing explicitly named file is an error.
// Variables already set in the environment take precedence over the files.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := LoadEnv(envFiles...); err != nil {
		return Config{}, err
	}
	cfg := Config{
		APIToken: os.Getenv(EnvAPIToken),
		ZoneID:   os.Getenv(EnvZoneID),
		RecordID: os.Getenv(EnvRecordID),
		Domain:   os.Getenv(EnvDomain),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnv copies variables from env files into the process environment without overriding ones already set.
// With no arguments it reads ".env" in the working directory if there is one.
func LoadEnv(envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading env file: %w", err)
		}
	}
	return nil
}

// Validate reports every missing value at once.
func (c Config) Validate() error {
	var errs []error
	for _, v := range []struct{ name, value string }{
		{EnvAPIToken, c.APIToken},
		{EnvZoneID, c.ZoneID},
		{EnvRecordID, c.RecordID},
		{EnvDomain, c.Domain},
	} {
		if v.value == "" {
			errs = append(errs, fmt.Errorf("%s not set", v.name))
		}
	}
	if c.Domain != "" && !strings.Contains(c.Domain, ".") {
		errs = append(errs, fmt.Errorf("%s must have at least one dot; got %q", EnvDomain, c.Domain))
	}
	return errors.Join(errs...)
}
