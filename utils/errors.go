package utils

import (
	"github.com/pkg/errors"

	"go.viam.com/contactscan/logging"
)

// NewUnsupportedFormatError is used when a file extension has no known reader or writer.
func NewUnsupportedFormatError(path string) error {
	return errors.Errorf("unsupported file format for %q", path)
}

// UncheckedError is used in places where we really do not care about an error but we want to
// at least report it. It logs at debug level on the global logger.
func UncheckedError(err error) {
	if err != nil {
		logging.Global().Debugw("unchecked error", "error", err)
	}
}
