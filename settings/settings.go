package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lexandro/refviewer-mcp/refs"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is the settings file looked up in the project root.
const DefaultFileName = ".refviewer.toml"

// ErrInvalid is returned for settings files that parse but hold bad values.
var ErrInvalid = errors.New("invalid exclusion settings")

// fileFormat is the on-disk TOML layout:
//
//	exclude_extensions = [".png", ".fbx"]
//	exclude_filenames  = ["LightingData.asset", "*.psd"]
type fileFormat struct {
	ExcludeExtensions []string `toml:"exclude_extensions"`
	ExcludeFilenames  []string `toml:"exclude_filenames"`
}

// Loader reads exclusion rules. It is called once per query so edits to the
// settings file take effect without a restart.
type Loader struct {
	// Path of the TOML settings file.
	Path string
	// Required makes a missing file an error. When false a missing file
	// yields rules built from the extra lists alone.
	Required bool
	// Extra entries merged into whatever the file holds (from CLI flags).
	ExtraExtensions []string
	ExtraFilenames  []string
}

// Load reads and validates the rules.
func (l *Loader) Load() (*refs.ExclusionRules, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !l.Required {
			return build(nil, nil, l.ExtraExtensions, l.ExtraFilenames)
		}
		return nil, fmt.Errorf("reading settings %s: %w", l.Path, err)
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("settings %s: %w", l.Path, err)
	}
	return build(rules.ExcludedExtensions, rules.ExcludedFilenames, l.ExtraExtensions, l.ExtraFilenames)
}

// Parse decodes a TOML settings document.
func Parse(data []byte) (*refs.ExclusionRules, error) {
	var file fileFormat
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}
	return build(file.ExcludeExtensions, file.ExcludeFilenames, nil, nil)
}

func build(extensions, filenames, extraExtensions, extraFilenames []string) (*refs.ExclusionRules, error) {
	rules := &refs.ExclusionRules{
		ExcludedExtensions: make([]string, 0, len(extensions)+len(extraExtensions)),
		ExcludedFilenames:  make([]string, 0, len(filenames)+len(extraFilenames)),
	}

	for _, extension := range slices.Concat(extensions, extraExtensions) {
		normalized := NormalizeExtension(extension)
		if normalized == "" || slices.Contains(rules.ExcludedExtensions, normalized) {
			continue
		}
		rules.ExcludedExtensions = append(rules.ExcludedExtensions, normalized)
	}

	for _, filename := range slices.Concat(filenames, extraFilenames) {
		filename = strings.TrimSpace(filename)
		if filename == "" || slices.Contains(rules.ExcludedFilenames, filename) {
			continue
		}
		if strings.ContainsAny(filename, `/\`) {
			return nil, fmt.Errorf("%w: filename %q must not contain a path separator", ErrInvalid, filename)
		}
		if !doublestar.ValidatePattern(filename) {
			return nil, fmt.Errorf("%w: filename pattern %q is malformed", ErrInvalid, filename)
		}
		rules.ExcludedFilenames = append(rules.ExcludedFilenames, filename)
	}

	return rules, nil
}

// NormalizeExtension trims an extension and gives it a leading dot.
func NormalizeExtension(extension string) string {
	extension = strings.TrimSpace(extension)
	extension = strings.TrimPrefix(extension, "*")
	if extension == "" || extension == "." {
		return ""
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return extension
}
