// Package config resolves redaction configuration for a freedact run.
//
// Configuration merges three sources via viper: built-in defaults, an
// optional YAML config file, and FREEDACT_* environment variables. The
// resolved Config is a plain value handed to the pipeline; the core never
// reads the environment or the config file itself. The seed secret is
// looked up here, at the boundary, and passed in as bytes.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the FREEDACT_ prefix
// (e.g. "verification.fail_on_residual" → FREEDACT_VERIFICATION_FAIL_ON_RESIDUAL)
// and to the same dotted path in the YAML config file.
const (
	KeyCrossDocConsistency = "pseudonyms.cross_doc_consistency"
	KeySecretEnv           = "pseudonyms.seed.secret_env"
	KeyRequireSecret       = "pseudonyms.require_secret"
	KeyNEREnable           = "detectors.ner.enable"
	KeyNERRequire          = "detectors.ner.require"
	KeyCorefEnable         = "detectors.coref.enable"
	KeyGenericAccounts     = "detectors.account_ids.generic"
	KeyAliasLabels         = "redact.alias_labels"
	KeyGenericDates        = "redact.generic_dates"
	KeyLocationsOutside    = "redact.locations_outside_addresses"
	KeyProtectHeadings     = "redact.protect_headings"
	KeyFailOnResidual      = "verification.fail_on_residual"
	KeySensitiveValues     = "safety.sensitive_values"
)

// Alias label policies.
const (
	AliasReplace   = "replace"
	AliasKeepRoles = "keep_roles"
)

// DefaultSecretEnv is the env var consulted for the seed secret when the
// config does not name another one.
const DefaultSecretEnv = "FREEDACT_SECRET"

// Config is the resolved, immutable configuration for one run.
type Config struct {
	CrossDocConsistency bool
	SecretEnv           string
	RequireSecret       bool

	NEREnable   bool
	NERRequire  bool
	CorefEnable bool

	// GenericAccounts enables the keyword-anchored generic account
	// number detector.
	GenericAccounts bool

	// AliasLabels is AliasReplace or AliasKeepRoles.
	AliasLabels string

	// GenericDates replaces DATE_GENERIC spans instead of keeping them.
	GenericDates bool

	// LocationsOutsideAddresses keeps LOCATION spans that fall outside
	// address blocks; when false they are dropped before planning.
	LocationsOutsideAddresses bool

	// ProtectHeadings exempts name-like spans inside legal heading lines
	// from replacement.
	ProtectHeadings bool

	FailOnResidual  bool
	SensitiveValues []string
}

// KeepRoles reports whether role aliases are preserved verbatim.
func (c *Config) KeepRoles() bool { return c.AliasLabels == AliasKeepRoles }

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyCrossDocConsistency, false)
	v.SetDefault(KeySecretEnv, DefaultSecretEnv)
	v.SetDefault(KeyRequireSecret, false)
	v.SetDefault(KeyNEREnable, false)
	v.SetDefault(KeyNERRequire, false)
	v.SetDefault(KeyCorefEnable, false)
	v.SetDefault(KeyGenericAccounts, true)
	v.SetDefault(KeyAliasLabels, AliasReplace)
	v.SetDefault(KeyGenericDates, false)
	v.SetDefault(KeyLocationsOutside, false)
	v.SetDefault(KeyProtectHeadings, true)
	v.SetDefault(KeyFailOnResidual, false)
	v.SetDefault(KeySensitiveValues, []string{})
}

// Load resolves configuration from defaults, the optional config file at
// path, and FREEDACT_* env vars. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FREEDACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		CrossDocConsistency:       v.GetBool(KeyCrossDocConsistency),
		SecretEnv:                 v.GetString(KeySecretEnv),
		RequireSecret:             v.GetBool(KeyRequireSecret),
		NEREnable:                 v.GetBool(KeyNEREnable),
		NERRequire:                v.GetBool(KeyNERRequire),
		CorefEnable:               v.GetBool(KeyCorefEnable),
		GenericAccounts:           v.GetBool(KeyGenericAccounts),
		AliasLabels:               v.GetString(KeyAliasLabels),
		GenericDates:              v.GetBool(KeyGenericDates),
		LocationsOutsideAddresses: v.GetBool(KeyLocationsOutside),
		ProtectHeadings:           v.GetBool(KeyProtectHeadings),
		FailOnResidual:            v.GetBool(KeyFailOnResidual),
		SensitiveValues:           v.GetStringSlice(KeySensitiveValues),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration, used by tests and by
// callers embedding the core without a config file.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config.Default: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.AliasLabels {
	case AliasReplace, AliasKeepRoles:
	default:
		return fmt.Errorf("invalid %s: %q (want %q or %q)",
			KeyAliasLabels, c.AliasLabels, AliasReplace, AliasKeepRoles)
	}
	if c.SecretEnv == "" {
		return fmt.Errorf("%s must not be empty", KeySecretEnv)
	}
	return nil
}

// ResolveSecret reads the seed secret from the configured env var.
// Returns an error when the secret is required but absent.
func (c *Config) ResolveSecret() ([]byte, error) {
	val := os.Getenv(c.SecretEnv)
	if val == "" {
		if c.RequireSecret {
			return nil, fmt.Errorf("secret required but %s is not set", c.SecretEnv)
		}
		return nil, nil
	}
	return []byte(val), nil
}
