package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"agentcrew/internal/crew"
	"agentcrew/internal/metrics"
	"agentcrew/internal/persona"
	"agentcrew/internal/store/memory"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestTools(t *testing.T) *Tools {
	t.Helper()
	reg, err := persona.Builtin()
	require.NoError(t, err)
	clock := func() time.Time { return now }
	c, err := crew.New(reg, memory.New(), crew.Options{Now: clock, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	tools, err := NewTools(c, metrics.NewReporter(metrics.Fixed{}, clock))
	require.NoError(t, err)
	return tools
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

var assigned = regexp.MustCompile(`^Task assigned with ID: (\d+)$`)

func assign(t *testing.T, tools *Tools, args map[string]any) int64 {
	t.Helper()
	res, err := tools.HandleTask(context.Background(), makeReq(args))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	m := assigned.FindStringSubmatch(resultText(res))
	require.NotNil(t, m, resultText(res))
	id, err := strconv.ParseInt(m[1], 10, 64)
	require.NoError(t, err)
	return id
}

func TestToolDefinitionsRequirePersona(t *testing.T) {
	for _, tool := range []mcp.Tool{statusTool(), taskTool(), completeTool(), improveTool(), metricsTool(), reportTool(), activityTool()} {
		assert.Contains(t, tool.InputSchema.Required, "persona", tool.Name)
		assert.Contains(t, tool.InputSchema.Properties, "persona", tool.Name)
	}
	assert.Empty(t, personasTool().InputSchema.Required)
	assert.ElementsMatch(t, []string{"persona", "description"}, taskTool().InputSchema.Required)
}

func TestTaskAndCompleteRoundTrip(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	id := assign(t, tools, map[string]any{
		"persona":         "senior-backend-2",
		"description":     "Add index on orders.customer_id",
		"priority":        "HIGH",
		"estimated_hours": float64(3),
		"dependencies":    "DBA-1, ,DBA-2",
	})

	tr, err := tools.crew.Tracker(ctx, "senior-backend-2")
	require.NoError(t, err)
	current := tr.Snapshot().Current
	require.Len(t, current, 1)
	assert.Equal(t, "high", string(current[0].Priority))
	assert.Equal(t, 3.0, current[0].EstimatedHours)
	assert.Equal(t, []string{"DBA-1", "DBA-2"}, current[0].Dependencies)

	res, err := tools.HandleComplete(ctx, makeReq(map[string]any{
		"persona": "senior-backend-2",
		"task_id": float64(id),
		"notes":   "done",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Task "+strconv.FormatInt(id, 10)+" completed: Add index on orders.customer_id", resultText(res))

	res, err = tools.HandleComplete(ctx, makeReq(map[string]any{
		"persona": "senior-backend-2",
		"task_id": strconv.FormatInt(id, 10),
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "task "+strconv.FormatInt(id, 10)+" not found", resultText(res))
}

func TestCompleteRejectsBadIDs(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	cases := map[string]struct {
		args map[string]any
		want string
	}{
		"missing":    {map[string]any{"persona": "sre-less"}, "unknown persona: sre-less"},
		"no id":      {map[string]any{"persona": "senior-backend-1"}, "'task_id' is required"},
		"fractional": {map[string]any{"persona": "senior-backend-1", "task_id": 1.5}, "task 1.5 not found"},
		"word":       {map[string]any{"persona": "senior-backend-1", "task_id": "abc"}, "task abc not found"},
		"unknown":    {map[string]any{"persona": "senior-backend-1", "task_id": float64(999999)}, "task 999999 not found"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := tools.HandleComplete(ctx, makeReq(tc.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Equal(t, tc.want, resultText(res))
		})
	}
}

func TestTaskValidation(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	res, err := tools.HandleTask(ctx, makeReq(map[string]any{"description": "x"}))
	require.NoError(t, err)
	assert.Equal(t, "'persona' is required", resultText(res))

	res, err = tools.HandleTask(ctx, makeReq(map[string]any{"persona": "engineering-manager", "description": "  "}))
	require.NoError(t, err)
	assert.Equal(t, "'description' is required", resultText(res))

	res, err = tools.HandleTask(ctx, makeReq(map[string]any{"persona": "engineering-manager", "description": "x", "priority": "urgent"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "urgent")
}

func TestImproveAndActivity(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	res, err := tools.HandleImprove(ctx, makeReq(map[string]any{"persona": "backend-engineer-7", "area": "testing"}))
	require.NoError(t, err)
	assert.Equal(t, "'suggestion' is required", resultText(res))

	res, err = tools.HandleActivity(ctx, makeReq(map[string]any{"persona": "backend-engineer-7"}))
	require.NoError(t, err)
	assert.Equal(t, "No activity recorded yet.", resultText(res))

	res, err = tools.HandleImprove(ctx, makeReq(map[string]any{
		"persona":    "backend-engineer-7",
		"area":       "testing",
		"suggestion": "add contract tests",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Regexp(t, `^Improvement \d+ recorded$`, resultText(res))
	assign(t, tools, map[string]any{"persona": "backend-engineer-7", "description": "write docs"})

	res, err = tools.HandleActivity(ctx, makeReq(map[string]any{"persona": "backend-engineer-7", "limit": float64(1)}))
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "task_accepted", entries[0]["action"])
}

func TestDocumentTools(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()
	assign(t, tools, map[string]any{"persona": "engineering-manager", "description": "Plan sprint", "priority": "high"})

	decode := func(res *mcp.CallToolResult) map[string]any {
		t.Helper()
		require.False(t, res.IsError, resultText(res))
		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &doc))
		return doc
	}
	req := makeReq(map[string]any{"persona": "engineering-manager"})

	res, err := tools.HandleStatus(ctx, req)
	require.NoError(t, err)
	status := decode(res)
	assert.Equal(t, "Engineering Manager", status["agent"])
	assert.Equal(t, float64(1), status["currentTasks"])

	res, err = tools.HandleMetrics(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, float64(1), decode(res)["activeProjects"])

	res, err = tools.HandleReport(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Week of 2026-06-01", decode(res)["period"])
}

func TestPersonasTool(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.HandlePersonas(context.Background(), makeReq(nil))
	require.NoError(t, err)
	var summaries []crew.Summary
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &summaries))
	require.Len(t, summaries, 6)
	assert.Equal(t, "engineering-manager", summaries[0].ID)
}

func TestServeListsToolsOverStdio(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	s := New(newTestTools(t), "test")
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, s, inR, outW, zap.NewNop())
		_ = outW.Close()
	}()

	go func() {
		_, _ = io.WriteString(inW, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`+"\n")
	}()
	line, err := bufio.NewReader(outR).ReadString('\n')
	require.NoError(t, err)
	for _, name := range []string{"crew_personas", "crew_status", "crew_task", "crew_complete", "crew_improve", "crew_metrics", "crew_report", "crew_activity"} {
		assert.Contains(t, line, `"`+name+`"`)
	}

	cancel()
	_ = inW.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	_ = outR.Close()
}
