package reflection

import (
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvDenySuppression        = "GOJVM_DENY_SUPPRESSION"
	EnvDebugModuleAccessCheck = "GOJVM_DEBUG_MODULE_ACCESS_CHECKS"
)

// Config holds the settings of a Reflector.
type Config struct {
	// DenySuppression forbids SetAccessible(true) and TrySetAccessible
	// for every caller, before any module reasoning.
	DenySuppression bool

	// PrintStackTraceOnDenial logs access and suppression denials with a
	// stack trace.
	PrintStackTraceOnDenial bool

	// GateCache memoises positive suppression decisions.
	GateCache GateCacheConfig
}

// GateCacheConfig sizes the suppression decision memo.
type GateCacheConfig struct {
	Enabled            bool
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		GateCache: GateCacheConfig{
			Enabled:            true,
			Capacity:           4096,
			NumShards:          16,
			TTL:                time.Hour,
			EvictionPercentage: 10,
		},
	}
}

// Validate checks the memo sizing when the memo is enabled.
func (c GateCacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.When(c.Enabled, validation.Required, validation.Min(1))),
		validation.Field(&c.NumShards, validation.When(c.Enabled, validation.Required, validation.Min(1))),
		validation.Field(&c.TTL, validation.When(c.Enabled, validation.Required, validation.Min(time.Millisecond))),
		validation.Field(&c.EvictionPercentage, validation.When(c.Enabled, validation.Required, validation.Min(1), validation.Max(100))),
	)
}

// Validate reports every invalid setting as one validation error.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.GateCache),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid reflection config")
	}
	return nil
}

// ConfigFromEnv overlays the environment on DefaultConfig.
// GOJVM_DEBUG_MODULE_ACCESS_CHECKS=access turns on stack traces for denials.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if v := os.Getenv(EnvDenySuppression); v != "" {
		deny, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, goerrors.Wrap(err, goerrors.CategoryValidation, EnvDenySuppression+" must be a boolean").
				WithTextCode(CodeInvalidArgument)
		}
		cfg.DenySuppression = deny
	}
	cfg.PrintStackTraceOnDenial = os.Getenv(EnvDebugModuleAccessCheck) == "access"
	return cfg, cfg.Validate()
}
