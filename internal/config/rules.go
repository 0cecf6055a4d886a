package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"verify/internal/contract"
	"verify/internal/scrub"
	"verify/internal/typename"
)

// RulesFiles are the rules declaration files looked up under .verify, in order.
var RulesFiles = []string{"rules.toml", "rules.yaml", "rules.yml"}

// Rules is a declarative member filter and text scrubbing file.
//
//	ignore_false = true
//	ignored_names = ["etag"]
//	ignored_types = ["time.Duration"]
//
//	[members]
//	"billing.Invoice" = ["internalRef"]
//
//	[replace]
//	"build-host-01" = "{Host}"
type Rules struct {
	IgnoreEmptyCollections *bool `toml:"ignore_empty_collections" yaml:"ignore_empty_collections"`
	IgnoreFalse            *bool `toml:"ignore_false" yaml:"ignore_false"`
	IncludeObsoletes       *bool `toml:"include_obsoletes" yaml:"include_obsoletes"`

	// IgnoredNames are serialized member names ignored on every type.
	IgnoredNames []string `toml:"ignored_names" yaml:"ignored_names"`
	// IgnoredTypes are registered type names; members of these types are ignored.
	IgnoredTypes []string `toml:"ignored_types" yaml:"ignored_types"`
	// Members maps a registered type name to member names it ignores.
	Members map[string][]string `toml:"members" yaml:"members"`

	// Replace maps literal text to its replacement in rendered output.
	Replace map[string]string `toml:"replace" yaml:"replace"`
	// RemoveLines drops rendered lines containing any of these strings.
	RemoveLines []string `toml:"remove_lines" yaml:"remove_lines"`
}

type format int

const (
	formatTOML format = iota
	formatYAML
)

func rulesFormat(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("unsupported rules file %q: want .toml, .yaml or .yml", filepath.Base(path))
	}
}

// ParseRulesFile parses a TOML or YAML rules file, chosen by extension.
func ParseRulesFile(path string) (*Rules, error) {
	f, err := rulesFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules Rules
	switch f {
	case formatTOML:
		err = toml.Unmarshal(data, &rules)
	case formatYAML:
		err = yaml.Unmarshal(data, &rules)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return &rules, nil
}

// LoadRules loads the configured rules file, or the first of RulesFiles that
// exists under .verify. It returns nil when there is none.
func LoadRules(root string, cfg *Config) (*Rules, error) {
	if cfg != nil && cfg.Rules.File != "" {
		return ParseRulesFile(filepath.Join(root, cfg.Rules.File))
	}
	for _, name := range RulesFiles {
		path := filepath.Join(root, Dir, name)
		if _, err := os.Stat(path); err == nil {
			return ParseRulesFile(path)
		}
	}
	return nil, nil
}

// Apply adds the declared rules to rs. Type names are resolved through
// registry; an unknown name fails with UNRESOLVED_TYPE.
func (r *Rules) Apply(registry *typename.Registry, rs *contract.RuleSet) error {
	if r == nil {
		return nil
	}
	if r.IgnoreEmptyCollections != nil {
		rs.IgnoreEmptyCollections = *r.IgnoreEmptyCollections
	}
	if r.IgnoreFalse != nil {
		rs.IgnoreFalse = *r.IgnoreFalse
	}
	if r.IncludeObsoletes != nil {
		rs.IncludeObsoletes = *r.IncludeObsoletes
	}

	rs.IgnoredByName = append(rs.IgnoredByName, r.IgnoredNames...)

	for _, name := range r.IgnoredTypes {
		t, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		rs.IgnoredTypes = append(rs.IgnoredTypes, t)
	}

	for _, name := range sortedKeys(r.Members) {
		t, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		rs.IgnoreMember(t, r.Members[name]...)
	}
	return nil
}

// Scrubbers returns the text scrubbers declared by the file. Replacements
// run longest match first so that overlapping keys are deterministic.
func (r *Rules) Scrubbers() []scrub.Scrubber {
	if r == nil {
		return nil
	}

	var scrubbers []scrub.Scrubber
	if len(r.RemoveLines) > 0 {
		scrubbers = append(scrubbers, scrub.RemoveLinesContaining(r.RemoveLines...))
	}

	olds := sortedKeys(r.Replace)
	sort.SliceStable(olds, func(i, j int) bool { return len(olds[i]) > len(olds[j]) })
	for _, old := range olds {
		scrubbers = append(scrubbers, scrub.Replace(old, r.Replace[old]))
	}
	return scrubbers
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
