package exemption

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

// ErrDuplicateCode is returned when one issuer code appears in more than one entry.
var ErrDuplicateCode = errors.New("duplicate issuer code")

// Flags are the exemption attributes attached to an issuer code.
type Flags struct {
	MarketMakerExempt bool `json:"market_maker_exempt"`
	RegulatorExempt   bool `json:"regulator_exempt"`
}

// Entry is one row of the exemption document. Primary and Alternate codes
// share the same flags.
type Entry struct {
	Primary           string `yaml:"primary" validate:"required"`
	Alternate         string `yaml:"alternate" validate:"omitempty,nefield=Primary"`
	MarketMakerExempt bool   `yaml:"market_maker_exempt"`
	RegulatorExempt   bool   `yaml:"regulator_exempt"`
}

// Document is the versioned on-disk form of the table.
type Document struct {
	Version string  `yaml:"version" validate:"required"`
	Entries []Entry `yaml:"entries" validate:"dive"`
}

// Table is the loaded, read-only issuer exemption table.
//
// It is built once at startup and never mutated afterwards, so concurrent
// Lookup calls need no locking.
type Table struct {
	version string
	flags   map[string]Flags
}

var validate = validator.New()

// Default returns the table embedded in the binary.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// Load reads the exemption table at path, or the embedded default when path is empty.
//
// Parameters:
//   - path: YAML file path; "" selects the embedded default.
//
// Returns:
//   - *Table: the validated table.
//   - error: read, decode, validation or duplicate-code failure.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exemption table: %w", err)
	}
	t, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("exemption table %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML exemption document.
//
// Behavior:
//   - version and every entry's primary code are required.
//   - an alternate code must differ from its primary.
//   - codes are trimmed and upper-cased; a code seen twice is rejected.
func Parse(data []byte) (*Table, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for i := range doc.Entries {
		doc.Entries[i].Primary = Normalize(doc.Entries[i].Primary)
		doc.Entries[i].Alternate = Normalize(doc.Entries[i].Alternate)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	t := &Table{version: doc.Version, flags: make(map[string]Flags, len(doc.Entries)*2)}
	for _, e := range doc.Entries {
		f := Flags{MarketMakerExempt: e.MarketMakerExempt, RegulatorExempt: e.RegulatorExempt}
		for _, code := range []string{e.Primary, e.Alternate} {
			if code == "" {
				continue
			}
			if _, dup := t.flags[code]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
			}
			t.flags[code] = f
		}
	}
	return t, nil
}

// Normalize trims and upper-cases an issuer code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the flags for code and whether the code is in the table.
// The code is normalized before lookup.
func (t *Table) Lookup(code string) (Flags, bool) {
	f, ok := t.flags[Normalize(code)]
	return f, ok
}

// Len returns the number of distinct codes (primary and alternate).
func (t *Table) Len() int { return len(t.flags) }

// Version returns the document version the table was loaded from.
func (t *Table) Version() string { return t.version }

// Codes returns every known code in ascending order.
func (t *Table) Codes() []string {
	out := make([]string, 0, len(t.flags))
	for c := range t.flags {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
