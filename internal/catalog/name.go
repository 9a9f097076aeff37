package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// VariantSeparator joins variant names into the key used by clients to address a
// multi-variant achievement as a whole.
const VariantSeparator = ","

// Name is either a single achievement name or an ordered list of mutually
// exclusive variants. The zero value is not valid; use Single or Variants.
type Name struct {
	values []string
}

// Single builds a one-name achievement title.
func Single(name string) (Name, error) {
	if strings.TrimSpace(name) == "" {
		return Name{}, errors.New("achievement name is empty")
	}
	return Name{values: []string{name}}, nil
}

// Variants builds a multi-variant title. At least two distinct, non-empty names are required.
func Variants(names ...string) (Name, error) {
	if len(names) < 2 {
		return Name{}, fmt.Errorf("variant achievement needs at least 2 names, got %d", len(names))
	}

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return Name{}, errors.New("variant name is empty")
		}
		if _, dup := seen[name]; dup {
			return Name{}, fmt.Errorf("duplicate variant name %q", name)
		}
		seen[name] = struct{}{}
	}

	return Name{values: slices.Clone(names)}, nil
}

// IsVariant reports whether the title holds mutually exclusive variants.
func (n Name) IsVariant() bool {
	return len(n.values) > 1
}

// Values returns the name (single) or the variants in authored order.
func (n Name) Values() []string {
	return slices.Clone(n.values)
}

// Len is the number of names; 1 for single achievements.
func (n Name) Len() int {
	return len(n.values)
}

// Key identifies the achievement as a whole.
func (n Name) Key() string {
	return strings.Join(n.values, VariantSeparator)
}

func (n Name) String() string {
	return n.Key()
}

// Has reports whether value is the single name or one of the variants.
func (n Name) Has(value string) bool {
	return slices.Contains(n.values, value)
}

// Matches reports whether value addresses this achievement, either by key or by one of its names.
func (n Name) Matches(value string) bool {
	return value == n.Key() || n.Has(value)
}
