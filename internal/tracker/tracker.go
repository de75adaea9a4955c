// Package tracker holds one persona's task lifecycle: tasks move from the
// current collection to the completed collection exactly once, and
// improvement suggestions are appended to a log.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agentcrew/internal/domain"
	"agentcrew/internal/idgen"
	"agentcrew/internal/persona"
)

// Store is the persistence the tracker writes through before it touches its
// in-memory collections.
type Store interface {
	LoadPersona(ctx context.Context, personaID string) (domain.PersonaState, error)
	InsertTask(ctx context.Context, task domain.Task) error
	CompleteTask(ctx context.Context, task domain.Task, contributions map[string]int) error
	InsertImprovement(ctx context.Context, imp domain.Improvement, contributions map[string]int) error
	LogActivity(ctx context.Context, activity domain.Activity) error
	ListActivity(ctx context.Context, personaID string, limit int) ([]domain.Activity, error)
}

type observer interface {
	Observe(id int64)
}

type TaskRequest struct {
	Description    string          `json:"description"`
	Priority       domain.Priority `json:"priority,omitempty"`
	EstimatedHours float64         `json:"estimatedHours,omitempty"`
	Dependencies   []string        `json:"dependencies,omitempty"`
}

type StatusReport struct {
	Agent          string         `json:"agent" yaml:"agent"`
	Phase          int            `json:"phase" yaml:"phase"`
	Status         string         `json:"status" yaml:"status"`
	Specialization string         `json:"specialization,omitempty" yaml:"specialization,omitempty"`
	CurrentTasks   int            `json:"currentTasks" yaml:"currentTasks"`
	CompletedTasks int            `json:"completedTasks" yaml:"completedTasks"`
	TeamSize       string         `json:"teamSize,omitempty" yaml:"teamSize,omitempty"`
	Expertise      []string       `json:"expertise" yaml:"expertise"`
	Contributions  map[string]int `json:"contributions,omitempty" yaml:"contributions,omitempty"`
	LastUpdate     time.Time      `json:"lastUpdate" yaml:"lastUpdate"`
}

type Snapshot struct {
	Persona       string               `json:"persona" yaml:"persona"`
	Current       []domain.Task        `json:"current" yaml:"current"`
	Completed     []domain.Task        `json:"completed" yaml:"completed"`
	Improvements  []domain.Improvement `json:"improvements" yaml:"improvements"`
	Contributions map[string]int       `json:"contributions" yaml:"contributions"`
}

type Tracker struct {
	mu      sync.Mutex
	persona persona.Persona
	store   Store
	ids     idgen.Generator
	now     func() time.Time
	logger  *zap.Logger

	current       []domain.Task
	completed     []domain.Task
	improvements  []domain.Improvement
	contributions map[string]int
}

// New loads whatever the store remembers about p. A persona with no stored
// counters starts from its initial contribution table.
func New(ctx context.Context, p persona.Persona, store Store, ids idgen.Generator, now func() time.Time, logger *zap.Logger) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("tracker store is required")
	}
	if now == nil {
		now = time.Now
	}
	if ids == nil {
		ids = idgen.NewSequence(now)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	state, err := store.LoadPersona(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load persona %s: %w", p.ID, err)
	}
	if o, ok := ids.(observer); ok {
		o.Observe(state.MaxID())
	}
	contributions := state.Contributions
	if len(contributions) == 0 {
		contributions = p.InitialContributions()
	}

	return &Tracker{
		persona:       p,
		store:         store,
		ids:           ids,
		now:           now,
		logger:        logger.With(zap.String("persona", p.ID)),
		current:       state.Current,
		completed:     state.Completed,
		improvements:  state.Improvements,
		contributions: contributions,
	}, nil
}

func (t *Tracker) Persona() persona.Persona {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.persona
}

// SetPersona swaps the rules used by later operations. Stored state is kept.
func (t *Tracker) SetPersona(p persona.Persona) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.persona = p
}

func (t *Tracker) AcceptDescription(ctx context.Context, description string) (int64, error) {
	return t.AcceptTask(ctx, TaskRequest{Description: description})
}

func (t *Tracker) AcceptTask(ctx context.Context, req TaskRequest) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task := domain.Task{
		ID:             t.ids.Next(),
		Persona:        t.persona.ID,
		Description:    req.Description,
		Priority:       req.Priority,
		EstimatedHours: req.EstimatedHours,
		Dependencies:   append([]string{}, req.Dependencies...),
		Status:         domain.TaskStatusAssigned,
		Classification: t.persona.Classify(req.Description),
		AssignedAt:     t.now().UTC(),
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.EstimatedHours == 0 {
		task.EstimatedHours = t.persona.DefaultEstimatedHours
	}

	if err := t.store.InsertTask(ctx, task); err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	t.current = append(t.current, task)

	t.logger.Info("accepted task",
		zap.Int64("task_id", task.ID),
		zap.String("description", task.Description),
		zap.String("classification", task.Classification))
	t.logActivity(ctx, domain.ActivityTaskAccepted, task.ID, map[string]any{
		"description":    task.Description,
		"priority":       task.Priority,
		"classification": task.Classification,
	})
	return task.ID, nil
}

// CompleteTask moves the task with id from current to completed. The store
// is written first; the collections change only when that succeeds.
func (t *Tracker) CompleteTask(ctx context.Context, id int64, notes string) (domain.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := slices.IndexFunc(t.current, func(task domain.Task) bool { return task.ID == id })
	if idx < 0 {
		return domain.Task{}, notFound(id)
	}

	done := t.current[idx].Clone()
	completedAt := t.now().UTC()
	done.CompletedAt = &completedAt
	done.CompletionNotes = notes
	done.Status = domain.TaskStatusCompleted

	counters := copyCounters(t.contributions)
	t.persona.ApplyCompletion(counters, done)

	if err := t.store.CompleteTask(ctx, done, counters); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return domain.Task{}, notFound(id)
		}
		return domain.Task{}, fmt.Errorf("complete task %d: %w", id, err)
	}
	t.current = slices.Delete(t.current, idx, idx+1)
	t.completed = append(t.completed, done)
	t.contributions = counters

	t.logger.Info("completed task", zap.Int64("task_id", id), zap.String("description", done.Description))
	t.logActivity(ctx, domain.ActivityTaskCompleted, id, map[string]any{"notes": notes})
	return done.Clone(), nil
}

func (t *Tracker) SuggestImprovement(ctx context.Context, area, suggestion string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	imp := domain.Improvement{
		ID:              t.ids.Next(),
		Persona:         t.persona.ID,
		Area:            area,
		Suggestion:      suggestion,
		Priority:        t.persona.ImprovementPriority(area),
		AssessmentField: t.persona.Assessment.Field,
		Assessment:      t.persona.Assess(suggestion),
		SuggestedAt:     t.now().UTC(),
	}

	counters := copyCounters(t.contributions)
	t.persona.ApplyImprovement(counters, imp)

	if err := t.store.InsertImprovement(ctx, imp, counters); err != nil {
		return 0, fmt.Errorf("insert improvement: %w", err)
	}
	t.improvements = append(t.improvements, imp)
	t.contributions = counters

	t.logger.Info("suggested improvement",
		zap.Int64("improvement_id", imp.ID),
		zap.String("area", area),
		zap.String("priority", string(imp.Priority)))
	t.logActivity(ctx, domain.ActivityImprovementSuggested, imp.ID, map[string]any{
		"area":     area,
		"priority": imp.Priority,
	})
	return imp.ID, nil
}

func (t *Tracker) Status() StatusReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.persona
	report := StatusReport{
		Agent:          p.Role,
		Phase:          p.Phase,
		Status:         "active",
		Specialization: p.Specialization,
		CurrentTasks:   len(t.current),
		CompletedTasks: len(t.completed),
		TeamSize:       p.TeamSize,
		Expertise:      append([]string{}, p.Skills...),
		LastUpdate:     t.now().UTC(),
	}
	if len(t.contributions) > 0 {
		report.Contributions = copyCounters(t.contributions)
	}
	return report
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Persona:       t.persona.ID,
		Current:       make([]domain.Task, 0, len(t.current)),
		Completed:     make([]domain.Task, 0, len(t.completed)),
		Improvements:  append([]domain.Improvement{}, t.improvements...),
		Contributions: copyCounters(t.contributions),
	}
	for _, task := range t.current {
		snap.Current = append(snap.Current, task.Clone())
	}
	for _, task := range t.completed {
		snap.Completed = append(snap.Completed, task.Clone())
	}
	return snap
}

// Activity returns the newest entries of the persona's journal first.
func (t *Tracker) Activity(ctx context.Context, limit int) ([]domain.Activity, error) {
	entries, err := t.store.ListActivity(ctx, t.Persona().ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}

func (t *Tracker) logActivity(ctx context.Context, action domain.ActivityAction, ref int64, detail map[string]any) {
	raw, err := json.Marshal(detail)
	if err != nil {
		t.logger.Warn("encode activity detail", zap.Error(err))
		raw = nil
	}
	entry := domain.Activity{
		ID:        uuid.NewString(),
		Persona:   t.persona.ID,
		Action:    action,
		RefID:     ref,
		Detail:    raw,
		CreatedAt: t.now().UTC(),
	}
	// Journal failures are logged, never returned.
	if err := t.store.LogActivity(ctx, entry); err != nil {
		t.logger.Warn("log activity", zap.String("action", string(action)), zap.Error(err))
	}
}

func notFound(id int64) error {
	return fmt.Errorf("task %d %w", id, domain.ErrTaskNotFound)
}

// IsNotFound reports whether err came from completing an unknown task.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrTaskNotFound)
}

func ParseTaskID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func copyCounters(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
