package cropfilter

import (
	"errors"
	"fmt"
)

// ErrInvalidRegion is wrapped by every error caused by a region that cannot
// be resolved: non-finite coordinates or a malformed region string.
var ErrInvalidRegion = errors.New("invalid crop region")

// ConfigurationError reports a configuration value outside a closed
// enumeration, such as an unknown Unit or Rounding.
type ConfigurationError struct {
	What  string
	Value interface{}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported %s %v", e.What, e.Value)
}
