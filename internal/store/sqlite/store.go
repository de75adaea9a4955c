package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"agentcrew/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY,
	persona TEXT NOT NULL,
	description TEXT NOT NULL,
	priority TEXT NOT NULL,
	estimated_hours REAL NOT NULL DEFAULT 0,
	dependencies TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL,
	classification TEXT NOT NULL DEFAULT '',
	assigned_at INTEGER NOT NULL,
	completed_at INTEGER NULL,
	completion_notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_tasks_persona ON tasks(persona, status);

CREATE TABLE IF NOT EXISTS improvements (
	id INTEGER PRIMARY KEY,
	persona TEXT NOT NULL,
	area TEXT NOT NULL,
	suggestion TEXT NOT NULL,
	priority TEXT NOT NULL,
	assessment_field TEXT NOT NULL,
	assessment TEXT NOT NULL,
	suggested_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_improvements_persona ON improvements(persona, suggested_at);

CREATE TABLE IF NOT EXISTS contributions (
	persona TEXT NOT NULL,
	counter TEXT NOT NULL,
	value INTEGER NOT NULL,
	PRIMARY KEY(persona, counter)
);

CREATE TABLE IF NOT EXISTS activity_log (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	persona TEXT NOT NULL,
	action TEXT NOT NULL,
	ref_id INTEGER NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_log_persona ON activity_log(persona, seq);
`

const taskColumns = `id, persona, description, priority, estimated_hours, dependencies, status,
	classification, assigned_at, completed_at, completion_notes`

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set sqlite pragma %q: %w", stmt, err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *Store) LoadPersona(ctx context.Context, personaID string) (domain.PersonaState, error) {
	var state domain.PersonaState
	var err error

	state.Current, err = s.listTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE persona = ? AND status = ? ORDER BY id ASC`,
		personaID, string(domain.TaskStatusAssigned))
	if err != nil {
		return domain.PersonaState{}, err
	}
	state.Completed, err = s.listTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE persona = ? AND status = ? ORDER BY completed_at ASC, id ASC`,
		personaID, string(domain.TaskStatusCompleted))
	if err != nil {
		return domain.PersonaState{}, err
	}
	if state.Improvements, err = s.listImprovements(ctx, personaID); err != nil {
		return domain.PersonaState{}, err
	}
	if state.Contributions, err = s.loadContributions(ctx, personaID); err != nil {
		return domain.PersonaState{}, err
	}
	return state, nil
}

func (s *Store) InsertTask(ctx context.Context, task domain.Task) error {
	deps, err := json.Marshal(nonNil(task.Dependencies))
	if err != nil {
		return fmt.Errorf("encode dependencies: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO tasks(`+taskColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Persona, task.Description, string(task.Priority), task.EstimatedHours, string(deps),
		string(task.Status), task.Classification, task.AssignedAt.UnixMilli(),
		nullableMilli(task.CompletedAt), task.CompletionNotes,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// CompleteTask flips an assigned task to completed and stores the persona's
// counters in one transaction. It returns domain.ErrTaskNotFound when the
// task is not assigned to task.Persona.
func (s *Store) CompleteTask(ctx context.Context, task domain.Task, contributions map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx complete task: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(
		ctx,
		`UPDATE tasks SET status = ?, completed_at = ?, completion_notes = ?
		WHERE id = ? AND persona = ? AND status = ?`,
		string(domain.TaskStatusCompleted), nullableMilli(task.CompletedAt), task.CompletionNotes,
		task.ID, task.Persona, string(domain.TaskStatusAssigned),
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	if err := replaceContributions(ctx, tx, task.Persona, contributions); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit complete task: %w", err)
	}
	return nil
}

func (s *Store) InsertImprovement(ctx context.Context, imp domain.Improvement, contributions map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx insert improvement: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO improvements(id, persona, area, suggestion, priority, assessment_field, assessment, suggested_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		imp.ID, imp.Persona, imp.Area, imp.Suggestion, string(imp.Priority),
		imp.AssessmentField, imp.Assessment, imp.SuggestedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert improvement: %w", err)
	}
	if err := replaceContributions(ctx, tx, imp.Persona, contributions); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert improvement: %w", err)
	}
	return nil
}

func (s *Store) LogActivity(ctx context.Context, a domain.Activity) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO activity_log(id, persona, action, ref_id, detail, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		a.ID, a.Persona, string(a.Action), a.RefID, string(a.Detail), a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

// ListActivity returns newest first. limit <= 0 means all.
func (s *Store) ListActivity(ctx context.Context, personaID string, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, persona, action, ref_id, detail, created_at
		FROM activity_log WHERE persona = ? ORDER BY seq DESC LIMIT ?`,
		personaID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Activity, 0)
	for rows.Next() {
		var a domain.Activity
		var action, detail string
		var created int64
		if err := rows.Scan(&a.ID, &a.Persona, &action, &a.RefID, &detail, &created); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Action = domain.ActivityAction(action)
		if detail != "" {
			a.Detail = json.RawMessage(detail)
		}
		a.CreatedAt = milliToTime(created)
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return result, nil
}

func (s *Store) listTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		var priority, deps, status string
		var assigned int64
		var completed sql.NullInt64
		if err := rows.Scan(
			&t.ID, &t.Persona, &t.Description, &priority, &t.EstimatedHours, &deps, &status,
			&t.Classification, &assigned, &completed, &t.CompletionNotes,
		); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if err := json.Unmarshal([]byte(deps), &t.Dependencies); err != nil {
			return nil, fmt.Errorf("decode dependencies of task %d: %w", t.ID, err)
		}
		t.Priority = domain.Priority(priority)
		t.Status = domain.TaskStatus(status)
		t.AssignedAt = milliToTime(assigned)
		t.CompletedAt = nullMilliToTimePtr(completed)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) listImprovements(ctx context.Context, personaID string) ([]domain.Improvement, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, persona, area, suggestion, priority, assessment_field, assessment, suggested_at
		FROM improvements WHERE persona = ? ORDER BY suggested_at ASC, id ASC`,
		personaID,
	)
	if err != nil {
		return nil, fmt.Errorf("list improvements: %w", err)
	}
	defer rows.Close()

	var result []domain.Improvement
	for rows.Next() {
		var imp domain.Improvement
		var priority string
		var suggested int64
		if err := rows.Scan(
			&imp.ID, &imp.Persona, &imp.Area, &imp.Suggestion, &priority,
			&imp.AssessmentField, &imp.Assessment, &suggested,
		); err != nil {
			return nil, fmt.Errorf("scan improvement: %w", err)
		}
		imp.Priority = domain.Priority(priority)
		imp.SuggestedAt = milliToTime(suggested)
		result = append(result, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate improvements: %w", err)
	}
	return result, nil
}

func (s *Store) loadContributions(ctx context.Context, personaID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT counter, value FROM contributions WHERE persona = ?`, personaID)
	if err != nil {
		return nil, fmt.Errorf("load contributions: %w", err)
	}
	defer rows.Close()

	var counters map[string]int
	for rows.Next() {
		var name string
		var value int
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		if counters == nil {
			counters = make(map[string]int)
		}
		counters[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributions: %w", err)
	}
	return counters, nil
}

func replaceContributions(ctx context.Context, tx *sql.Tx, personaID string, counters map[string]int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM contributions WHERE persona = ?`, personaID); err != nil {
		return fmt.Errorf("clear contributions: %w", err)
	}
	for name, value := range counters {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO contributions(persona, counter, value) VALUES(?, ?, ?)`,
			personaID, name, value,
		); err != nil {
			return fmt.Errorf("write contribution %s: %w", name, err)
		}
	}
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func nullMilliToTimePtr(v sql.NullInt64) *time.Time {
	if !v.Valid || v.Int64 <= 0 {
		return nil
	}
	t := milliToTime(v.Int64)
	return &t
}

func milliToTime(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullableMilli(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixMilli()
}
