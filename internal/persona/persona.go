// Package persona describes the agent personas as data: keyword tables,
// priority areas, assessment rules and contribution counters.
package persona

import (
	"strings"

	"agentcrew/internal/domain"
)

const (
	MatchExact    = "exact"
	MatchContains = "contains"

	ModeWordCount = "word_count"
	ModeKeywords  = "keywords"

	MetricsTeam         = "team"
	MetricsProductivity = "productivity"

	ReportWeekly = "weekly"
	ReportWork   = "work"

	HealthPerformance = "performance"
	HealthDatabase    = "database"
	HealthAPI         = "api"
	HealthCloud       = "cloud"

	ExtraDesign      = "design"
	ExtraSecurity    = "security"
	ExtraK8s         = "k8s"
	ExtraPerformance = "performance"

	DesignMicroservice = "microservice"
	DesignAPI          = "api"
	DesignCloud        = "cloud"
)

type Persona struct {
	ID                    string        `toml:"id" yaml:"id"`
	Role                  string        `toml:"role" yaml:"role"`
	Phase                 int           `toml:"phase" yaml:"phase"`
	Specialization        string        `toml:"specialization" yaml:"specialization"`
	TeamSize              string        `toml:"team_size" yaml:"team_size"`
	Skills                []string      `toml:"skills" yaml:"skills"`
	Responsibilities      []string      `toml:"responsibilities" yaml:"responsibilities"`
	DefaultEstimatedHours float64       `toml:"default_estimated_hours" yaml:"default_estimated_hours"`
	Classifier            *Classifier   `toml:"classifier" yaml:"classifier"`
	Priority              PriorityRule  `toml:"priority" yaml:"priority"`
	Assessment            Assessment    `toml:"assessment" yaml:"assessment"`
	Contributions         Contributions `toml:"contributions" yaml:"contributions"`
	MetricsProfile        string        `toml:"metrics_profile" yaml:"metrics_profile"`
	ReportProfile         string        `toml:"report_profile" yaml:"report_profile"`
	HealthProfile         string        `toml:"health_profile" yaml:"health_profile"`
	DesignKind            string        `toml:"design_kind" yaml:"design_kind"`
	Extras                []string      `toml:"extras" yaml:"extras"`
}

type Classifier struct {
	Field   string     `toml:"field" yaml:"field"`
	Default string     `toml:"default" yaml:"default"`
	Rules   []Category `toml:"rules" yaml:"rules"`
}

type Category struct {
	Label    string   `toml:"label" yaml:"label"`
	Keywords []string `toml:"keywords" yaml:"keywords"`
}

type PriorityRule struct {
	Match     string   `toml:"match" yaml:"match"`
	HighAreas []string `toml:"high_areas" yaml:"high_areas"`
}

type Assessment struct {
	Field    string   `toml:"field" yaml:"field"`
	Mode     string   `toml:"mode" yaml:"mode"`
	Tiers    []Tier   `toml:"tiers" yaml:"tiers"`
	Keywords []string `toml:"keywords" yaml:"keywords"`
	Match    string   `toml:"match" yaml:"match"`
	Default  string   `toml:"default" yaml:"default"`
}

// Tier applies when the word count is strictly greater than Above.
type Tier struct {
	Above int    `toml:"above" yaml:"above"`
	Label string `toml:"label" yaml:"label"`
}

type Contributions struct {
	Initial    map[string]int `toml:"initial" yaml:"initial"`
	OnComplete []Rule         `toml:"on_complete" yaml:"on_complete"`
	OnImprove  []Rule         `toml:"on_improve" yaml:"on_improve"`
}

type Rule struct {
	Counter  string         `toml:"counter" yaml:"counter"`
	Amount   int            `toml:"amount" yaml:"amount"`
	ByClass  map[string]int `toml:"by_class" yaml:"by_class"`
	Classes  []string       `toml:"classes" yaml:"classes"`
	Keywords []string       `toml:"keywords" yaml:"keywords"`
}

// Classify returns the label of the first rule with a keyword contained in
// description, ignoring case. Personas without a classifier return "".
func (p Persona) Classify(description string) string {
	if p.Classifier == nil {
		return ""
	}
	desc := strings.ToLower(description)
	for _, rule := range p.Classifier.Rules {
		if containsAny(desc, rule.Keywords) {
			return rule.Label
		}
	}
	return p.Classifier.Default
}

func (p Persona) ClassificationField() string {
	if p.Classifier == nil {
		return ""
	}
	return p.Classifier.Field
}

func (p Persona) ImprovementPriority(area string) domain.Priority {
	a := strings.ToLower(strings.TrimSpace(area))
	for _, high := range p.Priority.HighAreas {
		h := strings.ToLower(high)
		if p.Priority.Match == MatchContains {
			if strings.Contains(a, h) {
				return domain.PriorityHigh
			}
			continue
		}
		if a == h {
			return domain.PriorityHigh
		}
	}
	return domain.PriorityMedium
}

func (p Persona) Assess(suggestion string) string {
	a := p.Assessment
	switch a.Mode {
	case ModeKeywords:
		if containsAny(strings.ToLower(suggestion), a.Keywords) {
			return a.Match
		}
		return a.Default
	default:
		words := len(strings.Fields(suggestion))
		for _, tier := range a.Tiers {
			if words > tier.Above {
				return tier.Label
			}
		}
		return a.Default
	}
}

func (p Persona) InitialContributions() map[string]int {
	out := make(map[string]int, len(p.Contributions.Initial))
	for k, v := range p.Contributions.Initial {
		out[k] = v
	}
	return out
}

func (p Persona) ApplyCompletion(counters map[string]int, task domain.Task) {
	applyRules(counters, p.Contributions.OnComplete, task.Classification, task.Description)
}

func (p Persona) ApplyImprovement(counters map[string]int, imp domain.Improvement) {
	applyRules(counters, p.Contributions.OnImprove, "", imp.Area+" "+imp.Suggestion)
}

// Commands lists the dispatcher vocabulary understood by this persona.
func (p Persona) Commands() []string {
	cmds := []string{"status", "task", "complete", "improve", "metrics", "monitor", "report"}
	for _, extra := range p.Extras {
		if !contains(cmds, extra) {
			cmds = append(cmds, extra)
		}
	}
	return cmds
}

func (p Persona) HasExtra(name string) bool {
	return contains(p.Extras, name)
}

func applyRules(counters map[string]int, rules []Rule, class, text string) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if len(r.Classes) > 0 && !contains(r.Classes, class) {
			continue
		}
		if len(r.Keywords) > 0 && !containsAny(lower, r.Keywords) {
			continue
		}
		amount := r.Amount
		if v, ok := r.ByClass[class]; ok {
			amount = v
		}
		counters[r.Counter] += amount
	}
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
