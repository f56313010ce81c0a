package assign

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Assigner maps a two-letter US state code to the technician who covers that
// region. The table is total: unknown or missing states fall back to the
// default technician, so assignment never fails. A request's technician is
// assigned once at intake and never changed here.
type Assigner struct {
	regions map[string]string
	def     string
}

// regionFile is the YAML shape for an externally managed roster.
type regionFile struct {
	Default string            `yaml:"default"`
	Regions map[string]string `yaml:"regions"`
}

// Roster as of the current coverage map. East of the Mississippi is Marcus,
// the mountain and western states are Elena, Texas and the south-central
// block are Dmitri. Hawaii and Alaska fall through to the default.
var defaultRegions = map[string]string{
	"CT": "marcus.hale", "DE": "marcus.hale", "FL": "marcus.hale", "GA": "marcus.hale",
	"IL": "marcus.hale", "IN": "marcus.hale", "KY": "marcus.hale", "MA": "marcus.hale",
	"MD": "marcus.hale", "ME": "marcus.hale", "MI": "marcus.hale", "NC": "marcus.hale",
	"NH": "marcus.hale", "NJ": "marcus.hale", "NY": "marcus.hale", "OH": "marcus.hale",
	"PA": "marcus.hale", "RI": "marcus.hale", "SC": "marcus.hale", "TN": "marcus.hale",
	"VA": "marcus.hale", "VT": "marcus.hale", "WI": "marcus.hale", "WV": "marcus.hale",

	"AZ": "elena.cruz", "CA": "elena.cruz", "CO": "elena.cruz", "ID": "elena.cruz",
	"MT": "elena.cruz", "NM": "elena.cruz", "NV": "elena.cruz", "OR": "elena.cruz",
	"UT": "elena.cruz", "WA": "elena.cruz", "WY": "elena.cruz",

	"AL": "dmitri.volkov", "AR": "dmitri.volkov", "IA": "dmitri.volkov", "KS": "dmitri.volkov",
	"LA": "dmitri.volkov", "MN": "dmitri.volkov", "MO": "dmitri.volkov", "MS": "dmitri.volkov",
	"ND": "dmitri.volkov", "NE": "dmitri.volkov", "OK": "dmitri.volkov", "SD": "dmitri.volkov",
	"TX": "dmitri.volkov",
}

const defaultTechnician = "marcus.hale"

// NewAssigner returns an assigner backed by the compiled-in roster.
func NewAssigner() *Assigner {
	return &Assigner{regions: defaultRegions, def: defaultTechnician}
}

// LoadAssigner reads a roster file. State codes are upcased; the file must
// name a default technician.
func LoadAssigner(path string) (*Assigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region table: %w", err)
	}

	var file regionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse region table: %w", err)
	}
	if file.Default == "" {
		return nil, fmt.Errorf("region table %s: missing default technician", path)
	}

	regions := make(map[string]string, len(file.Regions))
	for state, tech := range file.Regions {
		if tech == "" {
			return nil, fmt.Errorf("region table %s: empty technician for state %s", path, state)
		}
		regions[strings.ToUpper(strings.TrimSpace(state))] = tech
	}

	return &Assigner{regions: regions, def: file.Default}, nil
}

// Assign returns the technician covering the given state. Unrecognized
// input yields the default technician rather than an error.
func (a *Assigner) Assign(state string) string {
	if tech, ok := a.regions[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return tech
	}
	return a.def
}

// Default returns the fallback technician.
func (a *Assigner) Default() string {
	return a.def
}

// Technicians returns the distinct roster, sorted, default included.
func (a *Assigner) Technicians() []string {
	seen := map[string]bool{a.def: true}
	for _, tech := range a.regions {
		seen[tech] = true
	}
	out := make([]string, 0, len(seen))
	for tech := range seen {
		out = append(out, tech)
	}
	sort.Strings(out)
	return out
}
