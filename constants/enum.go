package constants

import (
	"fmt"
	"strings"
)

// EnumValidator returns a check that accepts only the given values.
func EnumValidator(allowed ...string) func(string) error {
	set := map[string]struct{}{}
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(s string) error {
		if _, ok := set[s]; ok {
			return nil
		}
		return fmt.Errorf("must be one of [%s]", strings.Join(allowed, ", "))
	}
}
