// Package dispatch maps one persona command line to exactly one tracker,
// metrics or design operation and prints the result.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"agentcrew/internal/design"
	"agentcrew/internal/domain"
	"agentcrew/internal/metrics"
	"agentcrew/internal/persona"
	"agentcrew/internal/tracker"
)

// ErrCommandFailed is returned in strict mode when a command printed a usage
// line or a business error instead of doing its work.
var ErrCommandFailed = errors.New("command failed")

type Tracker interface {
	AcceptDescription(ctx context.Context, description string) (int64, error)
	CompleteTask(ctx context.Context, id int64, notes string) (domain.Task, error)
	SuggestImprovement(ctx context.Context, area, suggestion string) (int64, error)
	Status() tracker.StatusReport
	Snapshot() tracker.Snapshot
}

type Printer interface {
	Print(w io.Writer, v any) error
}

type Dispatcher struct {
	Persona  persona.Persona
	Tracker  Tracker
	Reporter *metrics.Reporter
	Printer  Printer
	Out      io.Writer
	Err      io.Writer
	Program  string
	Strict   bool
}

var usages = map[string]string{
	"task":     "task <description>",
	"complete": "complete <taskId> [notes]",
	"improve":  "improve <area> <suggestion>",
	"security": "security <type>",
	"k8s":      "k8s <serviceName> [replicas=N] [image=REF] [port=N]",
}

// Run executes args[0] with the remaining arguments. Business failures are
// printed and only turned into ErrCommandFailed when Strict is set; any other
// error is an infrastructure failure.
func (d *Dispatcher) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || !slices.Contains(d.Persona.Commands(), args[0]) {
		return d.available()
	}
	command, rest := args[0], args[1:]

	switch command {
	case "status":
		return d.print(d.Tracker.Status())

	case "task":
		if len(rest) == 0 || blank(rest[0]) {
			return d.usage(command)
		}
		id, err := d.Tracker.AcceptDescription(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(d.Out, "Task assigned with ID: %d\n", id)
		return nil

	case "complete":
		if len(rest) == 0 || blank(rest[0]) {
			return d.usage(command)
		}
		id, ok := tracker.ParseTaskID(rest[0])
		if !ok {
			fmt.Fprintf(d.Err, "task %s not found\n", rest[0])
			return d.failed()
		}
		if _, err := d.Tracker.CompleteTask(ctx, id, strings.Join(rest[1:], " ")); err != nil {
			if !tracker.IsNotFound(err) {
				return err
			}
			fmt.Fprintln(d.Err, err.Error())
			return d.failed()
		}
		return nil

	case "improve":
		if len(rest) < 2 || blank(rest[0]) || blank(strings.Join(rest[1:], " ")) {
			return d.usage(command)
		}
		_, err := d.Tracker.SuggestImprovement(ctx, rest[0], strings.Join(rest[1:], " "))
		return err

	case "metrics":
		return d.print(d.Reporter.Metrics(d.Persona, d.Tracker.Snapshot()))

	case "monitor":
		if d.Persona.HealthProfile == "" {
			return d.print(d.Reporter.Metrics(d.Persona, d.Tracker.Snapshot()))
		}
		doc, err := d.Reporter.Health(d.Persona.HealthProfile)
		if err != nil {
			return err
		}
		return d.print(doc)

	case "report":
		return d.print(d.Reporter.Report(d.Persona, d.Tracker.Snapshot()))

	case persona.ExtraPerformance:
		return d.print(d.Reporter.Performance())

	case persona.ExtraDesign:
		if len(rest) < 2 || blank(rest[0]) {
			return d.usage(command)
		}
		return d.print(d.design(rest[0], strings.Join(rest[1:], " ")))

	case persona.ExtraSecurity:
		if len(rest) == 0 || blank(rest[0]) {
			return d.usage(command)
		}
		impl, err := design.Security(rest[0])
		if err != nil {
			fmt.Fprintln(d.Err, err.Error())
			return d.failed()
		}
		return d.print(impl)

	case persona.ExtraK8s:
		if len(rest) == 0 || blank(rest[0]) {
			return d.usage(command)
		}
		opts, err := parseManifestOptions(rest[1:])
		if err != nil {
			fmt.Fprintln(d.Err, err.Error())
			return d.failed()
		}
		return d.print(design.KubernetesManifest(rest[0], opts))
	}
	return d.available()
}

func (d *Dispatcher) design(name, requirements string) any {
	switch d.Persona.DesignKind {
	case persona.DesignAPI:
		return design.API(name, requirements)
	case persona.DesignCloud:
		return design.CloudArchitecture(name, requirements)
	default:
		return design.Microservice(name, requirements)
	}
}

func (d *Dispatcher) print(v any) error {
	if err := d.Printer.Print(d.Out, v); err != nil {
		return fmt.Errorf("print result: %w", err)
	}
	return nil
}

func (d *Dispatcher) usage(command string) error {
	text := usages[command]
	if command == persona.ExtraDesign {
		text = "design <" + designSubject(d.Persona.DesignKind) + "> <requirements>"
	}
	fmt.Fprintf(d.Out, "Usage: %s %s\n", d.Program, text)
	return d.failed()
}

func (d *Dispatcher) available() error {
	fmt.Fprintf(d.Out, "Available commands: %s\n", strings.Join(d.Persona.Commands(), ", "))
	return d.failed()
}

// blank reports an argument the shell passed but that carries nothing.
func blank(arg string) bool {
	return strings.TrimSpace(arg) == ""
}

func (d *Dispatcher) failed() error {
	if d.Strict {
		return ErrCommandFailed
	}
	return nil
}

func designSubject(kind string) string {
	switch kind {
	case persona.DesignAPI:
		return "apiName"
	case persona.DesignCloud:
		return "appName"
	default:
		return "serviceName"
	}
}

func parseManifestOptions(args []string) (design.ManifestOptions, error) {
	var opts design.ManifestOptions
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return opts, fmt.Errorf("invalid manifest option %q, want key=value", arg)
		}
		switch key {
		case "replicas", "port":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return opts, fmt.Errorf("invalid %s %q", key, value)
			}
			if key == "replicas" {
				opts.Replicas = n
			} else {
				opts.Port = n
			}
		case "image":
			opts.Image = value
		default:
			return opts, fmt.Errorf("unknown manifest option %q", key)
		}
	}
	return opts, nil
}
