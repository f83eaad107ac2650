package sector

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

type entry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type document struct {
	Sectors []entry `yaml:"sectors"`
}

// Taxonomy is the fixed list of sectors used for matching. Matching compares
// canonical names with exact string equality; Canonical is applied on write
// so stored profiles never hold aliases.
type Taxonomy struct {
	names   []string
	byLower map[string]string
}

func Parse(b []byte) (*Taxonomy, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(doc.Sectors) == 0 {
		return nil, fmt.Errorf("parse taxonomy: no sectors")
	}

	t := &Taxonomy{
		names:   make([]string, 0, len(doc.Sectors)),
		byLower: make(map[string]string, len(doc.Sectors)*3),
	}
	for _, e := range doc.Sectors {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("parse taxonomy: empty sector name")
		}
		if err := t.add(name, name); err != nil {
			return nil, err
		}
		t.names = append(t.names, name)
		for _, a := range e.Aliases {
			if err := t.add(a, name); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func (t *Taxonomy) add(key, canonical string) error {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return nil
	}
	if prev, ok := t.byLower[k]; ok && prev != canonical {
		return fmt.Errorf("parse taxonomy: %q maps to both %q and %q", key, prev, canonical)
	}
	t.byLower[k] = canonical
	return nil
}

// Default returns the embedded taxonomy.
func Default() *Taxonomy {
	t, err := Parse(defaultTaxonomy)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Taxonomy) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Canonical resolves a sector name or alias, case-insensitively.
func (t *Taxonomy) Canonical(s string) (string, bool) {
	c, ok := t.byLower[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// CanonicalSet resolves every value and drops duplicates, keeping first-seen
// order. The second return lists the values that are not in the taxonomy.
func (t *Taxonomy) CanonicalSet(values []string) ([]string, []string) {
	out := make([]string, 0, len(values))
	var unknown []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		c, ok := t.Canonical(v)
		if !ok {
			unknown = append(unknown, v)
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, unknown
}
