package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type Printer struct {
	format string
}

func NewPrinter(format string) (*Printer, error) {
	switch format {
	case "", FormatJSON:
		return &Printer{format: FormatJSON}, nil
	case FormatYAML:
		return &Printer{format: FormatYAML}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func (p *Printer) Format() string { return p.format }

// Print writes v as a two-space indented document followed by a newline.
func (p *Printer) Print(w io.Writer, v any) error {
	if p.format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func (p *Printer) Render(v any) (string, error) {
	var sb strings.Builder
	if err := p.Print(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}
