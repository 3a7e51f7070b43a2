package dedupe

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/cohen-center/survey-cli/internal/model"
)

// OverridesVersion identifies the curated exception tables compiled into
// this build. Bump whenever the literal sets below change.
const OverridesVersion = "2016.02"

// The default exception tables. Each entry was hand-verified against the
// returned questionnaires: the per-category sets name organizations whose
// leadership response is itself a duplicate and must be dropped despite
// outranking the others; the rank-keyed sets resolve individual responses
// that the category passes leave ambiguous.
//
// NOTE: a few rank-keyed entries carry an identity-key suffix that never
// appears in any category list (e.g. 483238 here vs 483018 in the president
// list). The tables are preserved exactly as curated; Audit reports these
// rather than reconciling them.
var (
	defaultClergyDrop = []int64{
		100243, 191064, 331392, 600357, 606112, 900367, 947101,
	}
	defaultPresidentDrop = []int64{
		112153, 303295, 441184, 483018, 852511,
	}
	defaultExecutiveDrop = []int64{
		21386, 606477, 750756, 981092,
	}
	defaultForceKeep = []int64{
		2012013, 3212043, 4100275, 11606112,
	}
	defaultForceDrop = []int64{
		1331392, 2900367, 4947101, 11483238, 12191064,
	}
)

// Registry holds the curated override tables consulted during resolution.
// All lookups are exact-match; the tables are immutable after construction.
type Registry struct {
	Version string

	categoryDrop map[model.RoleCategory]map[int64]bool
	forceKeep    map[int64]bool
	forceDrop    map[int64]bool
}

// NewRegistry returns a registry loaded with the compiled-in tables.
func NewRegistry() *Registry {
	return newRegistry(OverridesVersion, overridesFile{
		ClergyDrop:    defaultClergyDrop,
		PresidentDrop: defaultPresidentDrop,
		ExecutiveDrop: defaultExecutiveDrop,
		ForceKeep:     defaultForceKeep,
		ForceDrop:     defaultForceDrop,
	})
}

// overridesFile is the YAML layout for an externally supplied table set.
type overridesFile struct {
	Version       string  `yaml:"version"`
	ClergyDrop    []int64 `yaml:"clergy_drop"`
	PresidentDrop []int64 `yaml:"president_drop"`
	ExecutiveDrop []int64 `yaml:"executive_drop"`
	ForceKeep     []int64 `yaml:"force_keep"`
	ForceDrop     []int64 `yaml:"force_drop"`
}

// LoadRegistry reads a full replacement table set from a YAML file. The file
// replaces the compiled-in tables wholesale; there is no merging.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "overrides: read %s", path)
	}

	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "overrides: parse %s", path)
	}
	if f.Version == "" {
		return nil, eris.Errorf("overrides: %s missing version", path)
	}

	return newRegistry(f.Version, f), nil
}

func newRegistry(version string, f overridesFile) *Registry {
	return &Registry{
		Version: version,
		categoryDrop: map[model.RoleCategory]map[int64]bool{
			model.RoleLeadClergy: toSet(f.ClergyDrop),
			model.RolePresident:  toSet(f.PresidentDrop),
			model.RoleExecutive:  toSet(f.ExecutiveDrop),
		},
		forceKeep: toSet(f.ForceKeep),
		forceDrop: toSet(f.ForceDrop),
	}
}

func toSet(keys []int64) map[int64]bool {
	s := make(map[int64]bool, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}

// CategoryDrop reports whether the given organization's response in the
// given leadership category must be dropped instead of promoted.
func (r *Registry) CategoryDrop(cat model.RoleCategory, identityKey int64) bool {
	return r.categoryDrop[cat][identityKey]
}

// ForceKeep reports whether the rank-keyed force-keep table contains rankKey.
func (r *Registry) ForceKeep(rankKey int64) bool {
	return r.forceKeep[rankKey]
}

// ForceDrop reports whether the rank-keyed force-drop table contains rankKey.
func (r *Registry) ForceDrop(rankKey int64) bool {
	return r.forceDrop[rankKey]
}

// Counts returns the size of each table, for reporting.
func (r *Registry) Counts() map[string]int {
	return map[string]int{
		"clergy_drop":    len(r.categoryDrop[model.RoleLeadClergy]),
		"president_drop": len(r.categoryDrop[model.RolePresident]),
		"executive_drop": len(r.categoryDrop[model.RoleExecutive]),
		"force_keep":     len(r.forceKeep),
		"force_drop":     len(r.forceDrop),
	}
}

// Audit returns the identity-key suffixes of rank-keyed entries that do not
// appear in any category drop list, sorted ascending. These are curation
// asymmetries carried over from the source tables; they are reported, never
// auto-corrected.
func (r *Registry) Audit() []int64 {
	inCategory := make(map[int64]bool)
	for _, set := range r.categoryDrop {
		for k := range set {
			inCategory[k] = true
		}
	}

	seen := make(map[int64]bool)
	var unmatched []int64
	for _, set := range []map[int64]bool{r.forceKeep, r.forceDrop} {
		for rk := range set {
			identityKey := rk % 1_000_000
			if !inCategory[identityKey] && !seen[identityKey] {
				seen[identityKey] = true
				unmatched = append(unmatched, identityKey)
			}
		}
	}

	sort.Slice(unmatched, func(i, j int) bool { return unmatched[i] < unmatched[j] })
	return unmatched
}
