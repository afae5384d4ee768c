package component

import (
	"fmt"
	"strings"

	"github.com/SaxonRah/Linen/errors"
)

// MaxNameLength is the maximum length for component names
const MaxNameLength = 256

// reservedPrefixes are the key namespaces the text save format uses for its
// own header. A component allowed to claim one could overwrite header keys
// in the flat key=value stream.
var reservedPrefixes = []string{"linen", "record"}

// ValidateName validates component names. Names are registry keys and
// persistence tags, so the accepted alphabet is deliberately narrow:
// alphanumeric, dash, underscore and dot.
func ValidateName(name string) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "ValidateName", "empty name")
	}
	if len(name) > MaxNameLength {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "ValidateName", "name too long")
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.') {
			return errors.WrapInvalid(
				fmt.Errorf("name %q contains invalid characters", name),
				"Registry", "ValidateName", "name character validation")
		}
	}
	for _, prefix := range reservedPrefixes {
		if name == prefix || strings.HasPrefix(name, prefix+".") {
			return errors.WrapInvalid(
				fmt.Errorf("name %q uses the reserved %q namespace", name, prefix),
				"Registry", "ValidateName", "name namespace validation")
		}
	}
	return nil
}
