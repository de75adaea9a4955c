package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcrew/internal/domain"
)

func task(id int64, personaID string) domain.Task {
	return domain.Task{
		ID:           id,
		Persona:      personaID,
		Description:  "task",
		Priority:     domain.PriorityMedium,
		Dependencies: []string{"dep"},
		Status:       domain.TaskStatusAssigned,
		AssignedAt:   time.Unix(1700000000, 0).UTC(),
	}
}

func TestStoreTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.InsertTask(ctx, task(1, "sre")))
	require.NoError(t, s.InsertTask(ctx, task(2, "sre")))
	require.NoError(t, s.InsertTask(ctx, task(3, "dba")))
	assert.Error(t, s.InsertTask(ctx, task(1, "sre")))

	done := task(2, "sre")
	done.Status = domain.TaskStatusCompleted
	require.NoError(t, s.CompleteTask(ctx, done, map[string]int{"bugsFixed": 3}))

	state, err := s.LoadPersona(ctx, "sre")
	require.NoError(t, err)
	require.Len(t, state.Current, 1)
	assert.Equal(t, int64(1), state.Current[0].ID)
	require.Len(t, state.Completed, 1)
	assert.Equal(t, int64(2), state.Completed[0].ID)
	assert.Equal(t, map[string]int{"bugsFixed": 3}, state.Contributions)
}

func TestStoreCompleteRejectsUnknownOrFinished(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.InsertTask(ctx, task(1, "sre")))

	done := task(1, "sre")
	done.Status = domain.TaskStatusCompleted
	require.NoError(t, s.CompleteTask(ctx, done, nil))

	assert.ErrorIs(t, s.CompleteTask(ctx, done, nil), domain.ErrTaskNotFound)
	assert.ErrorIs(t, s.CompleteTask(ctx, task(99, "sre"), nil), domain.ErrTaskNotFound)

	other := task(1, "dba")
	assert.ErrorIs(t, s.CompleteTask(ctx, other, nil), domain.ErrTaskNotFound)
}

func TestStoreCopiesOnTheWayInAndOut(t *testing.T) {
	ctx := context.Background()
	s := New()
	in := task(1, "sre")
	require.NoError(t, s.InsertTask(ctx, in))
	in.Dependencies[0] = "changed"

	state, err := s.LoadPersona(ctx, "sre")
	require.NoError(t, err)
	assert.Equal(t, []string{"dep"}, state.Current[0].Dependencies)

	counters := map[string]int{"n": 1}
	require.NoError(t, s.InsertImprovement(ctx, domain.Improvement{ID: 5, Persona: "sre"}, counters))
	counters["n"] = 100

	state, err = s.LoadPersona(ctx, "sre")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Contributions["n"])
	assert.Equal(t, int64(5), state.MaxID())
}

func TestStoreListActivityNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, persona := range []string{"sre", "dba", "sre", "sre"} {
		require.NoError(t, s.LogActivity(ctx, domain.Activity{
			ID:      string(rune('a' + i)),
			Persona: persona,
			Action:  domain.ActivityTaskAccepted,
			RefID:   int64(i),
		}))
	}

	all, err := s.ListActivity(ctx, "sre", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{3, 2, 0}, []int64{all[0].RefID, all[1].RefID, all[2].RefID})

	limited, err := s.ListActivity(ctx, "sre", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := s.ListActivity(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
