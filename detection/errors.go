package detection

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/contactscan/scene"
)

// ErrScanDurationExceeded is returned when a scan runs past Config.MaxScanDuration.
var ErrScanDurationExceeded = errors.New("scan exceeded its maximum duration")

var (
	errNoPairs      = errors.New("targets and colliders leave no pair to test")
	errBadFrameRate = errors.New("evaluator frame rate must be positive")
)

// ConfigurationError is returned before a scan starts when the configuration or the scene it
// names cannot be used.
type ConfigurationError struct {
	err error
}

// NewConfigurationError wraps err as a ConfigurationError.
func NewConfigurationError(err error) error {
	return &ConfigurationError{err: err}
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.err
}

// IsConfigurationError returns whether err, or anything it wraps, is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// EvaluatorFailureError is returned when the evaluator fails to produce an object's state. The
// scan stops at the failure.
type EvaluatorFailureError struct {
	Object string
	Time   scene.Time
	err    error
}

func newEvaluatorFailure(object string, t scene.Time, err error) error {
	return &EvaluatorFailureError{Object: object, Time: t, err: err}
}

func (e *EvaluatorFailureError) Error() string {
	return fmt.Sprintf("evaluator failed for %q at frame %v: %v", e.Object, float64(e.Time), e.err)
}

func (e *EvaluatorFailureError) Unwrap() error {
	return e.err
}

// IsEvaluatorFailure returns whether err, or anything it wraps, is an EvaluatorFailureError.
func IsEvaluatorFailure(err error) bool {
	var target *EvaluatorFailureError
	return errors.As(err, &target)
}
