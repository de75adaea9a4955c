package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrTaskNotFound = errors.New("not found")

type TaskStatus string

const (
	TaskStatusAssigned  TaskStatus = "assigned"
	TaskStatusCompleted TaskStatus = "completed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type ActivityAction string

const (
	ActivityTaskAccepted         ActivityAction = "task_accepted"
	ActivityTaskCompleted        ActivityAction = "task_completed"
	ActivityImprovementSuggested ActivityAction = "improvement_suggested"
)

type Task struct {
	ID              int64      `json:"id" yaml:"id"`
	Persona         string     `json:"persona" yaml:"persona"`
	Description     string     `json:"description" yaml:"description"`
	Priority        Priority   `json:"priority" yaml:"priority"`
	EstimatedHours  float64    `json:"estimatedHours" yaml:"estimatedHours"`
	Dependencies    []string   `json:"dependencies" yaml:"dependencies"`
	Status          TaskStatus `json:"status" yaml:"status"`
	Classification  string     `json:"classification,omitempty" yaml:"classification,omitempty"`
	AssignedAt      time.Time  `json:"assignedAt" yaml:"assignedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	CompletionNotes string     `json:"completionNotes" yaml:"completionNotes"`
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Task) Clone() Task {
	out := t
	out.Dependencies = append([]string{}, t.Dependencies...)
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		out.CompletedAt = &v
	}
	return out
}

type Improvement struct {
	ID              int64     `json:"id" yaml:"id"`
	Persona         string    `json:"persona" yaml:"persona"`
	Area            string    `json:"area" yaml:"area"`
	Suggestion      string    `json:"suggestion" yaml:"suggestion"`
	Priority        Priority  `json:"priority" yaml:"priority"`
	AssessmentField string    `json:"assessmentField" yaml:"assessmentField"`
	Assessment      string    `json:"assessment" yaml:"assessment"`
	SuggestedAt     time.Time `json:"suggestedAt" yaml:"suggestedAt"`
}

type Activity struct {
	ID        string          `json:"id"`
	Persona   string          `json:"persona"`
	Action    ActivityAction  `json:"action"`
	RefID     int64           `json:"ref_id"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// PersonaState is everything a store remembers about one persona.
type PersonaState struct {
	Current       []Task
	Completed     []Task
	Improvements  []Improvement
	Contributions map[string]int
}

func (s PersonaState) MaxID() int64 {
	var max int64
	for _, t := range s.Current {
		if t.ID > max {
			max = t.ID
		}
	}
	for _, t := range s.Completed {
		if t.ID > max {
			max = t.ID
		}
	}
	for _, imp := range s.Improvements {
		if imp.ID > max {
			max = imp.ID
		}
	}
	return max
}
