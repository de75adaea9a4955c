package mcpserver

import (
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"agentcrew/internal/tracker"
)

// floatArg reads a numeric argument. JSON numbers arrive as float64.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

// taskIDArg accepts the id as a JSON number or as a string. raw is the
// argument as the client sent it, empty when missing.
func taskIDArg(req mcp.CallToolRequest) (id int64, raw string, ok bool) {
	switch v := req.GetArguments()["task_id"].(type) {
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
		if v != float64(int64(v)) {
			return 0, raw, false
		}
		return int64(v), raw, true
	case string:
		id, ok = tracker.ParseTaskID(v)
		return id, v, ok
	default:
		return 0, "", false
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
