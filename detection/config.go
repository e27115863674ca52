package detection

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/contactscan/collision"
)

// Default configuration values.
const (
	DefaultSubsteps      = 8
	DefaultEpsilon       = 0.01
	DefaultContactMargin = 0.04
	DefaultPolicy        = collision.PolicyOverlap
)

// Config configures a collision scan.
type Config struct {
	PrecisionMode bool `json:"precision_mode"`
	// Substeps is the number of subdivisions of a frame the refiner aims for. Only used in
	// precision mode, where it must be at least 2.
	Substeps      int              `json:"substeps"`
	ContactPolicy collision.Policy `json:"contact_policy"`
	// Epsilon inflates every proxy; contact thresholds include it once.
	Epsilon float64 `json:"epsilon"`
	// DefaultMargin is the contact margin of objects that do not set their own.
	DefaultMargin  float64 `json:"default_margin"`
	SurfaceBounces int     `json:"surface_bounces"`

	// Targets and Colliders name the collections the two groups are taken from.
	Targets   string `json:"targets"`
	Colliders string `json:"colliders"`

	// MaxScanDuration bounds the wall time of a scan. Zero means unbounded.
	MaxScanDuration time.Duration `json:"max_scan_duration,omitempty"`
}

// DefaultConfig returns a config with every optional knob at its default. Targets and
// Colliders still need to be set.
func DefaultConfig() Config {
	return Config{
		Substeps:       DefaultSubsteps,
		ContactPolicy:  DefaultPolicy,
		Epsilon:        DefaultEpsilon,
		DefaultMargin:  DefaultContactMargin,
		SurfaceBounces: collision.DefaultBounces,
	}
}

// DecodeAttributes decodes a host attribute map on top of DefaultConfig. Durations may be given
// as strings such as "30s".
func DecodeAttributes(attrs map[string]interface{}) (Config, error) {
	conf := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     &conf,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(attrs); err != nil {
		return Config{}, NewConfigurationError(errors.Wrap(err, "error decoding detection attributes"))
	}
	return conf, nil
}

// withDefaults fills knobs left at their zero value. Epsilon and DefaultMargin are legitimately
// zero so they are left alone.
func (config Config) withDefaults() Config {
	if config.Substeps == 0 {
		config.Substeps = DefaultSubsteps
	}
	if config.ContactPolicy == "" {
		config.ContactPolicy = DefaultPolicy
	}
	if config.SurfaceBounces == 0 {
		config.SurfaceBounces = collision.DefaultBounces
	}
	return config
}

// Validate ensures all parts of the config are valid. Every problem is reported, not just the
// first, as a single ConfigurationError.
func (config *Config) Validate(path string) error {
	var errs error
	if config.PrecisionMode && config.Substeps < 2 {
		errs = multierr.Append(errs, errors.Errorf("%s.substeps must be at least 2 in precision mode, got %d", path, config.Substeps))
	}
	if config.Substeps < 0 {
		errs = multierr.Append(errs, errors.Errorf("%s.substeps must not be negative", path))
	}
	switch config.ContactPolicy {
	case collision.PolicyOverlap, collision.PolicySurfaceDistance:
	default:
		errs = multierr.Append(errs, errors.Errorf("%s.contact_policy %q is not one of %q, %q",
			path, config.ContactPolicy, collision.PolicyOverlap, collision.PolicySurfaceDistance))
	}
	if config.Epsilon < 0 {
		errs = multierr.Append(errs, errors.Errorf("%s.epsilon must not be negative, got %v", path, config.Epsilon))
	}
	if config.DefaultMargin < 0 {
		errs = multierr.Append(errs, errors.Errorf("%s.default_margin must not be negative, got %v", path, config.DefaultMargin))
	}
	if config.ContactPolicy == collision.PolicySurfaceDistance && config.SurfaceBounces < collision.DefaultBounces {
		errs = multierr.Append(errs, errors.Errorf("%s.surface_bounces must be at least %d, got %d",
			path, collision.DefaultBounces, config.SurfaceBounces))
	}
	if config.Targets == "" {
		errs = multierr.Append(errs, errors.Errorf("%s.targets is required", path))
	}
	if config.Colliders == "" {
		errs = multierr.Append(errs, errors.Errorf("%s.colliders is required", path))
	}
	if config.MaxScanDuration < 0 {
		errs = multierr.Append(errs, errors.Errorf("%s.max_scan_duration must not be negative", path))
	}
	if errs != nil {
		return NewConfigurationError(errs)
	}
	return nil
}
