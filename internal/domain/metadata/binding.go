package metadata

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// NamespaceBinding maps a short alias to a fully qualified namespace.
// A binding registered without an alias uses the namespace as its own alias.
type NamespaceBinding struct {
	Alias     string
	Namespace string
}

// NewNamespaceBinding normalizes alias and namespace into a binding.
func NewNamespaceBinding(alias, namespace string) (NamespaceBinding, error) {
	namespace = strings.Trim(strings.TrimSpace(namespace), persistence.NamespaceSeparator)
	if namespace == "" {
		return NamespaceBinding{}, ErrEmptyNamespace
	}
	alias = strings.TrimSpace(alias)
	if alias == "" {
		alias = namespace
	}
	return NamespaceBinding{Alias: alias, Namespace: namespace}, nil
}

// Covers reports whether namespace is the bound namespace or nested under it.
func (b NamespaceBinding) Covers(namespace string) bool {
	if namespace == b.Namespace {
		return true
	}
	return strings.HasPrefix(namespace, b.Namespace+persistence.NamespaceSeparator)
}

// SourceLocationSet is an ordered, duplicate-free list of locations.
// Duplicates are detected on the normalized absolute path.
type SourceLocationSet struct {
	paths []string
	seen  map[string]struct{}
}

// Add appends paths that are not yet present and returns how many were added.
func (s *SourceLocationSet) Add(paths ...string) (int, error) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	added := 0
	for _, p := range paths {
		norm, err := normalizeLocation(p)
		if err != nil {
			return added, err
		}
		if _, dup := s.seen[norm]; dup {
			continue
		}
		s.seen[norm] = struct{}{}
		s.paths = append(s.paths, norm)
		added++
	}
	return added, nil
}

// Paths returns a copy of the locations in insertion order.
func (s *SourceLocationSet) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Len returns the number of locations.
func (s *SourceLocationSet) Len() int {
	return len(s.paths)
}

func normalizeLocation(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", ErrEmptyLocation
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("normalize location %q: %w", p, err)
	}
	return filepath.Clean(abs), nil
}
