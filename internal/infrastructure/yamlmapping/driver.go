// Package yamlmapping discovers class metadata from YAML mapping files.
//
// Each class is defined in its own file named after the fully qualified class
// with namespace separators replaced by dots, e.g. App\Billing\Invoice is
// read from App.Billing.Invoice.orm.yaml.
package yamlmapping

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/persistence"
	"github.com/zjrosen/entityreg/internal/log"
)

// Extension is the suffix of mapping files.
const Extension = ".orm.yaml"

// ErrClassMismatch is returned when a file declares a different class than its name implies.
var ErrClassMismatch = errors.New("mapping file declares a different class")

// FileDriver reads mapping files from its own paths and from any locations
// passed in by a chain link.
type FileDriver struct {
	paths []string
}

// Compile-time checks.
var (
	_ persistence.MappingDriver = (*FileDriver)(nil)
	_ metadata.SourceStrategy   = (*FileDriver)(nil)
)

// NewFileDriver creates a driver over paths.
func NewFileDriver(paths ...string) *FileDriver {
	return &FileDriver{paths: append([]string(nil), paths...)}
}

// Paths returns the driver's own paths.
func (d *FileDriver) Paths() []string {
	return append([]string(nil), d.paths...)
}

// FileName returns the mapping file name for className.
func FileName(className string) string {
	return strings.ReplaceAll(className, persistence.NamespaceSeparator, ".") + Extension
}

// ClassName is the inverse of FileName.
func ClassName(fileName string) (string, bool) {
	base := filepath.Base(fileName)
	if !strings.HasSuffix(base, Extension) {
		return "", false
	}
	stem := strings.TrimSuffix(base, Extension)
	if stem == "" {
		return "", false
	}
	return strings.ReplaceAll(stem, ".", persistence.NamespaceSeparator), true
}

func (d *FileDriver) search(locations []string) []string {
	seen := make(map[string]bool, len(d.paths)+len(locations))
	out := make([]string, 0, len(d.paths)+len(locations))
	for _, p := range append(d.Paths(), locations...) {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Locate returns the first mapping file for className under the driver's
// paths followed by locations.
func (d *FileDriver) Locate(_ context.Context, className string, locations []string) (string, bool) {
	name := FileName(className)
	for _, dir := range d.search(locations) {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Load parses the mapping file at source.
func (d *FileDriver) Load(_ context.Context, className, source string) (*persistence.ClassMetadata, error) {
	data, err := os.ReadFile(source) //nolint:gosec // G304: mapping paths come from configuration
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}

	var md persistence.ClassMetadata
	if err := yaml.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse mapping file %s: %w", source, err)
	}
	if md.Class == "" {
		md.Class = className
	}
	if md.Class != className {
		return nil, fmt.Errorf("%w: %s declares %s, expected %s", ErrClassMismatch, source, md.Class, className)
	}
	md.Source = source
	return &md, nil
}

// Scan lists every class with a mapping file directly under the driver's
// paths and locations. Missing directories are skipped.
func (d *FileDriver) Scan(_ context.Context, locations []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, dir := range d.search(locations) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug(log.CatChain, "mapping path does not exist", "path", dir)
				continue
			}
			return nil, fmt.Errorf("scan mapping path %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			class, ok := ClassName(e.Name())
			if !ok || seen[class] {
				continue
			}
			seen[class] = true
			out = append(out, class)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Describe loads className from the driver's own paths.
func (d *FileDriver) Describe(ctx context.Context, className string) (*persistence.ClassMetadata, error) {
	source, ok := d.Locate(ctx, className, nil)
	if !ok {
		return nil, fmt.Errorf("no mapping file for %s", className)
	}
	return d.Load(ctx, className, source)
}

// ClassNames lists classes under the driver's own paths.
func (d *FileDriver) ClassNames(ctx context.Context) ([]string, error) {
	return d.Scan(ctx, nil)
}

// IsTransient reports whether no mapping file exists for className.
func (d *FileDriver) IsTransient(ctx context.Context, className string) bool {
	_, ok := d.Locate(ctx, className, nil)
	return !ok
}

// Write marshals md into dir using the conventional file name.
func Write(dir string, md *persistence.ClassMetadata) (string, error) {
	if md == nil || md.Class == "" {
		return "", errors.New("metadata requires a class name")
	}
	data, err := yaml.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("marshal mapping: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create mapping dir: %w", err)
	}
	path := filepath.Join(dir, FileName(md.Class))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write mapping file: %w", err)
	}
	return path, nil
}
