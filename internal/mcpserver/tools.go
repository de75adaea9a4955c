package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"agentcrew/internal/crew"
	"agentcrew/internal/domain"
	"agentcrew/internal/metrics"
	"agentcrew/internal/output"
	"agentcrew/internal/tracker"
)

const defaultActivityLimit = 20

type Tools struct {
	crew     *crew.Crew
	reporter *metrics.Reporter
	printer  *output.Printer
}

func NewTools(c *crew.Crew, reporter *metrics.Reporter) (*Tools, error) {
	printer, err := output.NewPrinter(output.FormatJSON)
	if err != nil {
		return nil, err
	}
	return &Tools{crew: c, reporter: reporter, printer: printer}, nil
}

func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(personasTool(), t.HandlePersonas)
	s.AddTool(statusTool(), t.HandleStatus)
	s.AddTool(taskTool(), t.HandleTask)
	s.AddTool(completeTool(), t.HandleComplete)
	s.AddTool(improveTool(), t.HandleImprove)
	s.AddTool(metricsTool(), t.HandleMetrics)
	s.AddTool(reportTool(), t.HandleReport)
	s.AddTool(activityTool(), t.HandleActivity)
}

func personaParam() mcp.ToolOption {
	return mcp.WithString("persona",
		mcp.Required(),
		mcp.Description("Persona id, for example senior-backend-1 (see crew_personas)"),
	)
}

func personasTool() mcp.Tool {
	return mcp.NewTool("crew_personas",
		mcp.WithDescription("List every persona with its role, phase and task counts."),
	)
}

func statusTool() mcp.Tool {
	return mcp.NewTool("crew_status",
		mcp.WithDescription("Show a persona's status: role, phase, task counts, expertise and contribution counters."),
		personaParam(),
	)
}

func taskTool() mcp.Tool {
	return mcp.NewTool("crew_task",
		mcp.WithDescription("Assign a task to a persona. Returns the new task id."),
		personaParam(),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What needs to be done"),
		),
		mcp.WithString("priority",
			mcp.Description("low, medium or high (default: medium)"),
		),
		mcp.WithNumber("estimated_hours",
			mcp.Description("Estimate in hours (default: the persona's usual estimate)"),
		),
		mcp.WithString("dependencies",
			mcp.Description("Comma separated list of things the task waits on"),
		),
	)
}

func completeTool() mcp.Tool {
	return mcp.NewTool("crew_complete",
		mcp.WithDescription("Mark one of a persona's assigned tasks as completed."),
		personaParam(),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("Id returned by crew_task"),
		),
		mcp.WithString("notes",
			mcp.Description("Optional completion notes"),
		),
	)
}

func improveTool() mcp.Tool {
	return mcp.NewTool("crew_improve",
		mcp.WithDescription("Record an improvement suggestion for a persona."),
		personaParam(),
		mcp.WithString("area",
			mcp.Required(),
			mcp.Description("Area of the suggestion, for example performance or security"),
		),
		mcp.WithString("suggestion",
			mcp.Required(),
			mcp.Description("The suggestion itself"),
		),
	)
}

func metricsTool() mcp.Tool {
	return mcp.NewTool("crew_metrics",
		mcp.WithDescription("Simulated team or productivity metrics for a persona."),
		personaParam(),
	)
}

func reportTool() mcp.Tool {
	return mcp.NewTool("crew_report",
		mcp.WithDescription("Weekly or work report for a persona."),
		personaParam(),
	)
}

func activityTool() mcp.Tool {
	return mcp.NewTool("crew_activity",
		mcp.WithDescription("Recent activity journal of a persona, newest first."),
		personaParam(),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default: 20, 0 for all)"),
		),
	)
}

func (t *Tools) HandlePersonas(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := t.crew.Summaries(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list personas: %v", err)), nil
	}
	return t.render(summaries)
}

func (t *Tools) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tr, failure := t.tracker(ctx, req)
	if failure != nil {
		return failure, nil
	}
	return t.render(tr.Status())
}

func (t *Tools) HandleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tr, failure := t.tracker(ctx, req)
	if failure != nil {
		return failure, nil
	}
	description := strings.TrimSpace(req.GetString("description", ""))
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}
	priority := domain.Priority(strings.ToLower(req.GetString("priority", "")))
	switch priority {
	case "", domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown priority %q, want low, medium or high", priority)), nil
	}

	id, err := tr.AcceptTask(ctx, tracker.TaskRequest{
		Description:    description,
		Priority:       priority,
		EstimatedHours: floatArg(req, "estimated_hours", 0),
		Dependencies:   splitList(req.GetString("dependencies", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to assign task: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task assigned with ID: %d", id)), nil
}

func (t *Tools) HandleComplete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tr, failure := t.tracker(ctx, req)
	if failure != nil {
		return failure, nil
	}
	id, raw, ok := taskIDArg(req)
	if !ok {
		if raw == "" {
			return mcp.NewToolResultError("'task_id' is required"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("task %s not found", raw)), nil
	}
	task, err := tr.CompleteTask(ctx, id, req.GetString("notes", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %d completed: %s", task.ID, task.Description)), nil
}

func (t *Tools) HandleImprove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tr, failure := t.tracker(ctx, req)
	if failure != nil {
		return failure, nil
	}
	area := strings.TrimSpace(req.GetString("area", ""))
	if area == "" {
		return mcp.NewToolResultError("'area' is required"), nil
	}
	suggestion := strings.TrimSpace(req.GetString("suggestion", ""))
	if suggestion == "" {
		return mcp.NewToolResultError("'suggestion' is required"), nil
	}
	id, err := tr.SuggestImprovement(ctx, area, suggestion)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record improvement: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Improvement %d recorded", id)), nil
}

func (t *Tools) HandleMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tr, failure := t.tracker(ctx, req)
	if failure != nil {
		return failure, nil
	}
	return t.render(t.reporter.Metrics(tr.Persona(), tr.Snapshot()))
}

func (t *Tools) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tr, failure := t.tracker(ctx, req)
	if failure != nil {
		return failure, nil
	}
	return t.render(t.reporter.Report(tr.Persona(), tr.Snapshot()))
}

func (t *Tools) HandleActivity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tr, failure := t.tracker(ctx, req)
	if failure != nil {
		return failure, nil
	}
	entries, err := tr.Activity(ctx, int(floatArg(req, "limit", defaultActivityLimit)))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read activity: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No activity recorded yet."), nil
	}
	return t.render(entries)
}

// tracker resolves the persona argument. A non-nil result is the error to
// hand back to the client.
func (t *Tools) tracker(ctx context.Context, req mcp.CallToolRequest) (*tracker.Tracker, *mcp.CallToolResult) {
	id := strings.TrimSpace(req.GetString("persona", ""))
	if id == "" {
		return nil, mcp.NewToolResultError("'persona' is required")
	}
	tr, err := t.crew.Tracker(ctx, id)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return tr, nil
}

func (t *Tools) render(v any) (*mcp.CallToolResult, error) {
	text, err := t.printer.Render(v)
	if err != nil {
		return nil, fmt.Errorf("render result: %w", err)
	}
	return mcp.NewToolResultText(text), nil
}
