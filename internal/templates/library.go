package templates

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed library/*.yaml
var libraryFS embed.FS

// LoadLibrary parses the built-in template files. One template per
// file, loaded in filename order so registration order is stable.
func LoadLibrary() ([]*Template, error) {
	entries, err := libraryFS.ReadDir("library")
	if err != nil {
		return nil, fmt.Errorf("failed to read template library: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var tmpls []*Template
	for _, name := range names {
		data, err := libraryFS.ReadFile("library/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		var t Template
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		tmpls = append(tmpls, &t)
	}
	return tmpls, nil
}

// NewLibraryRegistry builds a registry over the built-in library.
func NewLibraryRegistry() (*Registry, error) {
	tmpls, err := LoadLibrary()
	if err != nil {
		return nil, err
	}
	return NewRegistry(tmpls...)
}

// NewLibraryParser builds the regex parser with the default patterns
// for the built-in library.
func NewLibraryParser(registry *Registry) (*Parser, error) {
	return NewParser(registry, DefaultPatterns())
}
