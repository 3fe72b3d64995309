// Package scenarios holds the built-in specification builders that scenario
// files refer to by name.
package scenarios

import (
	"sort"

	"github.com/etamimi93/openmc/internal/harness"
)

var registry = map[string]harness.Builder{
	"mg_tallies": harness.BuilderFunc(MGTallies),
}

// Lookup returns the builder registered under name.
func Lookup(name string) (harness.Builder, bool) {
	b, ok := registry[name]
	return b, ok
}

// Names lists the registered builders in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
