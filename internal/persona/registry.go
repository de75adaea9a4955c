package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed builtin.toml
var builtinTOML string

var ErrUnknownPersona = errors.New("unknown persona")

// reservedIDs are the agentcrew subcommands; a persona with one of these ids
// could never be addressed from the command line.
var reservedIDs = []string{"personas", "serve", "dashboard", "help", "completion"}

type file struct {
	Personas []Persona `toml:"personas" yaml:"personas"`
}

// Registry is an ordered, immutable set of personas.
type Registry struct {
	personas []Persona
	index    map[string]int
}

func NewRegistry(personas []Persona) (*Registry, error) {
	r := &Registry{
		personas: make([]Persona, 0, len(personas)),
		index:    make(map[string]int, len(personas)),
	}
	for _, p := range personas {
		p = withDefaults(p)
		if err := validate(p); err != nil {
			return nil, err
		}
		key := strings.ToLower(p.ID)
		if _, dup := r.index[key]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", p.ID)
		}
		r.index[key] = len(r.personas)
		r.personas = append(r.personas, p)
	}
	return r, nil
}

func Builtin() (*Registry, error) {
	var f file
	if _, err := toml.Decode(builtinTOML, &f); err != nil {
		return nil, fmt.Errorf("decode builtin personas: %w", err)
	}
	return NewRegistry(f.Personas)
}

// Load returns the builtin personas, merged with the overrides in path when
// path is not empty.
func Load(path string) (*Registry, error) {
	reg, err := Builtin()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return reg, nil
	}
	overrides, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return reg.Merge(overrides)
}

func LoadFile(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personas file %s: %w", path, err)
	}
	var f file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode personas yaml: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("decode personas toml: %w", err)
		}
	}
	return f.Personas, nil
}

// Merge replaces personas sharing an id with overrides and appends the rest.
func (r *Registry) Merge(overrides []Persona) (*Registry, error) {
	merged := append([]Persona{}, r.personas...)
	for _, o := range overrides {
		if i, ok := r.index[strings.ToLower(o.ID)]; ok {
			merged[i] = o
			continue
		}
		merged = append(merged, o)
	}
	return NewRegistry(merged)
}

func (r *Registry) Get(id string) (Persona, error) {
	i, ok := r.index[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %s", ErrUnknownPersona, id)
	}
	return r.personas[i], nil
}

func (r *Registry) All() []Persona {
	return append([]Persona{}, r.personas...)
}

func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.personas))
	for _, p := range r.personas {
		ids = append(ids, p.ID)
	}
	return ids
}

func withDefaults(p Persona) Persona {
	p.ID = strings.TrimSpace(p.ID)
	if p.Role == "" {
		p.Role = p.ID
	}
	if p.Phase <= 0 {
		p.Phase = 1
	}
	if p.DefaultEstimatedHours <= 0 {
		p.DefaultEstimatedHours = 6
	}
	if p.Priority.Match == "" {
		p.Priority.Match = MatchExact
	}
	if p.Assessment.Mode == "" {
		p.Assessment.Mode = ModeWordCount
	}
	if p.Assessment.Field == "" {
		p.Assessment.Field = "feasibility"
	}
	if p.MetricsProfile == "" {
		p.MetricsProfile = MetricsProductivity
	}
	if p.ReportProfile == "" {
		p.ReportProfile = ReportWork
	}
	return p
}

func validate(p Persona) error {
	if p.ID == "" {
		return errors.New("persona id is required")
	}
	if strings.ContainsAny(p.ID, " \t/") {
		return fmt.Errorf("persona %s: id must not contain spaces or slashes", p.ID)
	}
	if slices.Contains(reservedIDs, strings.ToLower(p.ID)) {
		return fmt.Errorf("persona %s: id is reserved for the %s command", p.ID, strings.ToLower(p.ID))
	}
	switch p.Priority.Match {
	case MatchExact, MatchContains:
	default:
		return fmt.Errorf("persona %s: unknown priority match %q", p.ID, p.Priority.Match)
	}
	switch p.Assessment.Mode {
	case ModeWordCount, ModeKeywords:
	default:
		return fmt.Errorf("persona %s: unknown assessment mode %q", p.ID, p.Assessment.Mode)
	}
	for i := 1; i < len(p.Assessment.Tiers); i++ {
		if p.Assessment.Tiers[i].Above >= p.Assessment.Tiers[i-1].Above {
			return fmt.Errorf("persona %s: assessment tiers must be ordered by descending above", p.ID)
		}
	}
	switch p.MetricsProfile {
	case MetricsTeam, MetricsProductivity:
	default:
		return fmt.Errorf("persona %s: unknown metrics profile %q", p.ID, p.MetricsProfile)
	}
	switch p.ReportProfile {
	case ReportWeekly, ReportWork:
	default:
		return fmt.Errorf("persona %s: unknown report profile %q", p.ID, p.ReportProfile)
	}
	switch p.HealthProfile {
	case "", HealthPerformance, HealthDatabase, HealthAPI, HealthCloud:
	default:
		return fmt.Errorf("persona %s: unknown health profile %q", p.ID, p.HealthProfile)
	}
	for _, extra := range p.Extras {
		switch extra {
		case ExtraDesign:
			switch p.DesignKind {
			case DesignMicroservice, DesignAPI, DesignCloud:
			default:
				return fmt.Errorf("persona %s: design extra needs design_kind, got %q", p.ID, p.DesignKind)
			}
		case ExtraSecurity, ExtraK8s:
		case ExtraPerformance:
			if p.HealthProfile != HealthPerformance {
				return fmt.Errorf("persona %s: performance extra needs the performance health profile", p.ID)
			}
		default:
			return fmt.Errorf("persona %s: unknown extra command %q", p.ID, extra)
		}
	}
	return nil
}
