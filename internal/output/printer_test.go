package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Agent string   `json:"agent" yaml:"agent"`
	Tags  []string `json:"tags" yaml:"tags"`
}

func TestPrintJSONIndented(t *testing.T) {
	p, err := NewPrinter("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, p.Format())

	var buf bytes.Buffer
	require.NoError(t, p.Print(&buf, doc{Agent: "R&D", Tags: []string{"a"}}))
	assert.Equal(t, "{\n  \"agent\": \"R&D\",\n  \"tags\": [\n    \"a\"\n  ]\n}\n", buf.String())
}

func TestPrintYAML(t *testing.T) {
	p, err := NewPrinter(FormatYAML)
	require.NoError(t, err)

	out, err := p.Render(doc{Agent: "sre", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "agent: sre\ntags:\n  - a\n  - b\n", out)
}

func TestNewPrinterRejectsUnknownFormat(t *testing.T) {
	_, err := NewPrinter("xml")
	assert.ErrorContains(t, err, "xml")
}
