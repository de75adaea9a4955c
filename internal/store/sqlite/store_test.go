package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"agentcrew/internal/domain"
)

var assignedAt = time.Date(2026, 1, 5, 8, 30, 0, 0, time.UTC)

func TestTaskLifecycleRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	task := domain.Task{
		ID:             1767601800000,
		Persona:        "senior-backend-4",
		Description:    "Terraform the VPC",
		Priority:       domain.PriorityHigh,
		EstimatedHours: 6,
		Dependencies:   []string{"NET-12"},
		Status:         domain.TaskStatusAssigned,
		Classification: "Infrastructure",
		AssignedAt:     assignedAt,
	}
	if err := store.InsertTask(ctx, task); err != nil {
		t.Fatalf("insert task: %v", err)
	}
	if err := store.InsertTask(ctx, task); err == nil {
		t.Fatalf("expected duplicate insert to fail")
	}

	state, err := store.LoadPersona(ctx, "senior-backend-4")
	if err != nil {
		t.Fatalf("load persona: %v", err)
	}
	if len(state.Current) != 1 || len(state.Completed) != 0 {
		t.Fatalf("unexpected collections: %d current, %d completed", len(state.Current), len(state.Completed))
	}
	if !reflect.DeepEqual(state.Current[0], task) {
		t.Fatalf("task mismatch:\n got %+v\nwant %+v", state.Current[0], task)
	}
	if state.Contributions != nil {
		t.Fatalf("expected no stored contributions, got %v", state.Contributions)
	}

	done := task.Clone()
	completedAt := assignedAt.Add(2 * time.Hour)
	done.Status = domain.TaskStatusCompleted
	done.CompletedAt = &completedAt
	done.CompletionNotes = "applied"
	if err := store.CompleteTask(ctx, done, map[string]int{"infrastructureProjects": 19, "cloudMigrations": 5}); err != nil {
		t.Fatalf("complete task: %v", err)
	}

	state, err = store.LoadPersona(ctx, "senior-backend-4")
	if err != nil {
		t.Fatalf("reload persona: %v", err)
	}
	if len(state.Current) != 0 || len(state.Completed) != 1 {
		t.Fatalf("task did not move: %d current, %d completed", len(state.Current), len(state.Completed))
	}
	if !reflect.DeepEqual(state.Completed[0], done) {
		t.Fatalf("completed task mismatch:\n got %+v\nwant %+v", state.Completed[0], done)
	}
	if state.Contributions["infrastructureProjects"] != 19 || len(state.Contributions) != 2 {
		t.Fatalf("unexpected contributions: %v", state.Contributions)
	}
}

func TestCompleteTaskNotFoundLeavesRowsUntouched(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	if err := store.InsertTask(ctx, domain.Task{
		ID: 10, Persona: "sre", Description: "x", Priority: domain.PriorityMedium,
		Status: domain.TaskStatusAssigned, AssignedAt: assignedAt,
	}); err != nil {
		t.Fatalf("insert task: %v", err)
	}

	missing := domain.Task{ID: 999999, Persona: "sre", CompletedAt: &assignedAt}
	if err := store.CompleteTask(ctx, missing, map[string]int{"n": 1}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	wrongPersona := domain.Task{ID: 10, Persona: "dba", CompletedAt: &assignedAt}
	if err := store.CompleteTask(ctx, wrongPersona, nil); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected not found for another persona, got %v", err)
	}

	state, err := store.LoadPersona(ctx, "sre")
	if err != nil {
		t.Fatalf("load persona: %v", err)
	}
	if len(state.Current) != 1 || state.Contributions != nil {
		t.Fatalf("failed completion changed state: %+v", state)
	}
}

func TestImprovementsAndCounters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	for i, area := range []string{"performance", "docs"} {
		imp := domain.Improvement{
			ID:              int64(100 + i),
			Persona:         "backend-engineer-7",
			Area:            area,
			Suggestion:      "cache responses",
			Priority:        domain.PriorityHigh,
			AssessmentField: "feasibility",
			Assessment:      "simple",
			SuggestedAt:     assignedAt.Add(time.Duration(i) * time.Minute),
		}
		if err := store.InsertImprovement(ctx, imp, map[string]int{"improvementsSuggested": 10 + i}); err != nil {
			t.Fatalf("insert improvement: %v", err)
		}
	}

	state, err := store.LoadPersona(ctx, "backend-engineer-7")
	if err != nil {
		t.Fatalf("load persona: %v", err)
	}
	if len(state.Improvements) != 2 || state.Improvements[1].Area != "docs" {
		t.Fatalf("unexpected improvements: %+v", state.Improvements)
	}
	if got := state.Contributions["improvementsSuggested"]; got != 11 {
		t.Fatalf("expected counter 11, got %d", got)
	}
	if state.MaxID() != 101 {
		t.Fatalf("expected max id 101, got %d", state.MaxID())
	}
}

func TestActivityLogNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	actions := []domain.ActivityAction{
		domain.ActivityTaskAccepted,
		domain.ActivityTaskCompleted,
		domain.ActivityImprovementSuggested,
	}
	for i, action := range actions {
		detail, _ := json.Marshal(map[string]int{"n": i})
		if err := store.LogActivity(ctx, domain.Activity{
			ID:        uuid.NewString(),
			Persona:   "engineering-manager",
			Action:    action,
			RefID:     int64(i),
			Detail:    detail,
			CreatedAt: assignedAt,
		}); err != nil {
			t.Fatalf("log activity: %v", err)
		}
	}

	all, err := store.ListActivity(ctx, "engineering-manager", 0)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(all) != 3 || all[0].Action != domain.ActivityImprovementSuggested {
		t.Fatalf("unexpected order: %+v", all)
	}
	if string(all[2].Detail) != `{"n":0}` {
		t.Fatalf("unexpected detail: %s", all[2].Detail)
	}

	limited, err := store.ListActivity(ctx, "engineering-manager", 2)
	if err != nil {
		t.Fatalf("list limited activity: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(limited))
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "data", "crew.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate store: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		t.Fatalf("migrate store: %v", err)
	}
	return store
}
