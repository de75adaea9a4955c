package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agentcrew/internal/idgen"
	"agentcrew/internal/metrics"
	"agentcrew/internal/output"
	"agentcrew/internal/persona"
	"agentcrew/internal/store/memory"
	"agentcrew/internal/tracker"
)

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type harness struct {
	d       *Dispatcher
	tracker *tracker.Tracker
	out     *bytes.Buffer
	err     *bytes.Buffer
}

func newHarness(t *testing.T, personaID string, strict bool) *harness {
	t.Helper()
	reg, err := persona.Builtin()
	require.NoError(t, err)
	p, err := reg.Get(personaID)
	require.NoError(t, err)

	clock := func() time.Time { return now }
	tr, err := tracker.New(context.Background(), p, memory.New(), idgen.NewSequence(clock), clock, zap.NewNop())
	require.NoError(t, err)
	printer, err := output.NewPrinter(output.FormatJSON)
	require.NoError(t, err)

	h := &harness{tracker: tr, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	h.d = &Dispatcher{
		Persona:  p,
		Tracker:  tr,
		Reporter: metrics.NewReporter(metrics.Fixed{}, clock),
		Printer:  printer,
		Out:      h.out,
		Err:      h.err,
		Program:  "agentcrew " + p.ID,
		Strict:   strict,
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.out.Reset()
	h.err.Reset()
	return h.d.Run(context.Background(), args)
}

var assignedLine = regexp.MustCompile(`^Task assigned with ID: (\d+)\n$`)

func TestTaskThenComplete(t *testing.T) {
	h := newHarness(t, "senior-backend-1", false)

	require.NoError(t, h.run(t, "task", "Fix", "bug", "in", "payment", "service"))
	m := assignedLine.FindStringSubmatch(h.out.String())
	require.NotNil(t, m, h.out.String())

	require.NoError(t, h.run(t, "complete", m[1], "patched", "it"))
	assert.Empty(t, h.out.String())
	assert.Empty(t, h.err.String())

	snap := h.tracker.Snapshot()
	require.Len(t, snap.Completed, 1)
	assert.Equal(t, "Fix bug in payment service", snap.Completed[0].Description)
	assert.Equal(t, "patched it", snap.Completed[0].CompletionNotes)
}

func TestCompleteMissingTaskPrintsToErr(t *testing.T) {
	h := newHarness(t, "senior-backend-2", false)

	require.NoError(t, h.run(t, "complete", "999999"))
	assert.Empty(t, h.out.String())
	assert.Equal(t, "task 999999 not found\n", h.err.String())

	require.NoError(t, h.run(t, "complete", "abc"))
	assert.Equal(t, "task abc not found\n", h.err.String())
}

func TestStrictModeReturnsCommandFailed(t *testing.T) {
	h := newHarness(t, "senior-backend-2", true)

	assert.ErrorIs(t, h.run(t, "complete", "999999"), ErrCommandFailed)
	assert.ErrorIs(t, h.run(t, "task"), ErrCommandFailed)
	assert.ErrorIs(t, h.run(t, "dance"), ErrCommandFailed)
	assert.NoError(t, h.run(t, "status"))
}

func TestUsageLines(t *testing.T) {
	h := newHarness(t, "senior-backend-4", false)

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"task"}, "task <description>"},
		{[]string{"complete"}, "complete <taskId> [notes]"},
		{[]string{"improve", "cost"}, "improve <area> <suggestion>"},
		{[]string{"design", "shop"}, "design <appName> <requirements>"},
		{[]string{"k8s"}, "k8s <serviceName> [replicas=N] [image=REF] [port=N]"},
	}
	for _, tc := range cases {
		require.NoError(t, h.run(t, tc.args...))
		assert.Equal(t, "Usage: agentcrew senior-backend-4 "+tc.want+"\n", h.out.String(), tc.args)
	}
	assert.Empty(t, h.tracker.Snapshot().Improvements)
}

func TestBlankArgumentsPrintUsage(t *testing.T) {
	h := newHarness(t, "senior-backend-1", false)

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"task", ""}, "task <description>"},
		{[]string{"task", "  "}, "task <description>"},
		{[]string{"complete", ""}, "complete <taskId> [notes]"},
		{[]string{"improve", "security", ""}, "improve <area> <suggestion>"},
		{[]string{"improve", "", "add", "MFA"}, "improve <area> <suggestion>"},
	}
	for _, tc := range cases {
		require.NoError(t, h.run(t, tc.args...))
		assert.Equal(t, "Usage: agentcrew senior-backend-1 "+tc.want+"\n", h.out.String(), tc.args)
		assert.Empty(t, h.err.String(), tc.args)
	}

	snap := h.tracker.Snapshot()
	assert.Empty(t, snap.Current)
	assert.Empty(t, snap.Improvements)

	strict := newHarness(t, "senior-backend-1", true)
	assert.ErrorIs(t, strict.run(t, "task", ""), ErrCommandFailed)
}

func TestUnknownCommandListsVocabulary(t *testing.T) {
	h := newHarness(t, "senior-backend-3", false)

	require.NoError(t, h.run(t))
	assert.Equal(t, "Available commands: status, task, complete, improve, metrics, monitor, report, design, security\n", h.out.String())

	require.NoError(t, h.run(t, "k8s", "svc"))
	assert.Contains(t, h.out.String(), "Available commands:")
}

func TestImprovePrintsNothing(t *testing.T) {
	h := newHarness(t, "engineering-manager", false)

	require.NoError(t, h.run(t, "improve", "security", "add", "MFA"))
	assert.Empty(t, h.out.String())
	imps := h.tracker.Snapshot().Improvements
	require.Len(t, imps, 1)
	assert.Equal(t, "add MFA", imps[0].Suggestion)
	assert.Equal(t, "high", string(imps[0].Priority))
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestStatusMetricsAndReport(t *testing.T) {
	h := newHarness(t, "engineering-manager", false)

	require.NoError(t, h.run(t, "status"))
	status := decode(t, h.out.Bytes())
	assert.Equal(t, "Engineering Manager", status["agent"])
	assert.Equal(t, float64(0), status["currentTasks"])

	require.NoError(t, h.run(t, "metrics"))
	assert.Contains(t, decode(t, h.out.Bytes()), "teamVelocity")

	require.NoError(t, h.run(t, "report"))
	assert.Equal(t, "Week of 2026-05-04", decode(t, h.out.Bytes())["period"])

	be7 := newHarness(t, "backend-engineer-7", false)
	require.NoError(t, be7.run(t, "metrics"))
	assert.Contains(t, decode(t, be7.out.Bytes()), "innovation")
	require.NoError(t, be7.run(t, "monitor"))
	assert.Contains(t, decode(t, be7.out.Bytes()), "productivity")
}

func TestMonitorUsesHealthProfile(t *testing.T) {
	for personaID, key := range map[string]string{
		"senior-backend-1": "currentMetrics",
		"senior-backend-2": "replication",
		"senior-backend-3": "endpoints",
		"senior-backend-4": "costs",
	} {
		h := newHarness(t, personaID, false)
		require.NoError(t, h.run(t, "monitor"))
		assert.Contains(t, decode(t, h.out.Bytes()), key, personaID)
	}

	h := newHarness(t, "senior-backend-1", false)
	require.NoError(t, h.run(t, "performance"))
	assert.Contains(t, decode(t, h.out.Bytes()), "bottlenecks")
}

func TestDesignFollowsPersonaKind(t *testing.T) {
	cases := map[string]string{
		"senior-backend-1": "serviceName",
		"senior-backend-3": "apiName",
		"senior-backend-4": "applicationName",
	}
	for personaID, key := range cases {
		h := newHarness(t, personaID, false)
		require.NoError(t, h.run(t, "design", "orders", "real-time", "search"))
		assert.Equal(t, "orders", decode(t, h.out.Bytes())[key], personaID)
	}
}

func TestSecurityCommand(t *testing.T) {
	h := newHarness(t, "senior-backend-3", false)

	require.NoError(t, h.run(t, "security", "oauth2"))
	assert.Equal(t, "OAuth 2.0", decode(t, h.out.Bytes())["type"])

	require.NoError(t, h.run(t, "security", "kerberos"))
	assert.Empty(t, h.out.String())
	assert.Equal(t, "unknown security type: kerberos\n", h.err.String())
}

func TestK8sCommand(t *testing.T) {
	h := newHarness(t, "senior-backend-4", false)

	require.NoError(t, h.run(t, "k8s", "billing", "replicas=5", "port=9000"))
	doc := decode(t, h.out.Bytes())
	spec := doc["spec"].(map[string]any)
	assert.Equal(t, float64(5), spec["replicas"])
	assert.Contains(t, h.out.String(), `"containerPort": 9000`)

	require.NoError(t, h.run(t, "k8s", "billing", "replicas=lots"))
	assert.Equal(t, "invalid replicas \"lots\"\n", h.err.String())
}

func TestTaskIdsAreDistinctAcrossRapidCalls(t *testing.T) {
	h := newHarness(t, "backend-engineer-7", false)

	seen := map[int64]bool{}
	for i := 0; i < 10; i++ {
		require.NoError(t, h.run(t, "task", "job", strconv.Itoa(i)))
		m := assignedLine.FindStringSubmatch(h.out.String())
		require.NotNil(t, m)
		id, err := strconv.ParseInt(m[1], 10, 64)
		require.NoError(t, err)
		require.False(t, seen[id])
		seen[id] = true
	}
}
