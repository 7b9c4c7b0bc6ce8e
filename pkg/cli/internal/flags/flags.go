// Package flags provides reusable flag types for CLI commands.
package flags

import (
	"fmt"
	"strings"
)

// StringSlice implements flag.Value for repeatable string flags.
type StringSlice []string

// String returns the string representation of the flag value.
func (s *StringSlice) String() string {
	return strings.Join(*s, ",")
}

// Set appends a value to the slice.
func (s *StringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// Type specifies the type label for Cobra flags.
func (s *StringSlice) Type() string {
	return "stringSlice"
}

// Choice is a string flag restricted to a fixed set of values.
type Choice struct {
	Value   string
	Allowed []string
}

// String returns the current value.
func (c *Choice) String() string {
	return c.Value
}

// Set accepts value if it is one of the allowed values.
func (c *Choice) Set(value string) error {
	for _, a := range c.Allowed {
		if value == a {
			c.Value = value
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(c.Allowed, ", "))
}

// Type specifies the type label for Cobra flags.
func (c *Choice) Type() string {
	return strings.Join(c.Allowed, "|")
}
