package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentcrew/internal/crew"
	"agentcrew/internal/domain"
	"agentcrew/internal/tracker"
)

const dashboardActivityLimit = 50

func newDashboardCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Terminal dashboard of every persona's tasks and activity",
		Long: `Shows every persona with its task counts, the selected persona's tasks and
its activity journal. Commands typed into the prompt run against the selected
persona, exactly like "agentcrew <persona-id> <command>".

Keys: Enter select persona, F5 refresh, F10 quit, Ctrl+L prompt, Ctrl+T personas.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.dashboard(cmd.Context(), interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "refresh interval")
	return cmd
}

func (a *app) dashboard(ctx context.Context, interval time.Duration) error {
	app := tview.NewApplication()
	personasTable := tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false)
	personasTable.SetTitle("Personas (Enter select, F5 refresh, F10 quit)").SetBorder(true)

	tasksView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	tasksView.SetTitle("Tasks").SetBorder(true)

	activityView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	activityView.SetTitle("Activity").SetBorder(true)

	outputView := tview.NewTextView().
		SetDynamicColors(false).
		SetWrap(true)
	outputView.SetTitle("Output").SetBorder(true)

	promptInput := tview.NewInputField().
		SetLabel("Command -> persona: ")
	promptInput.SetBorder(true).SetTitle("Enter = run command")

	statusView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	statusView.SetBorder(true).SetTitle("Status")
	statusView.SetText(fmt.Sprintf(
		"store=%s | shortcuts: F10 quit, F5 refresh, Ctrl+L focus prompt, Ctrl+T focus personas",
		a.cfg.Store.Driver,
	))

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tasksView, 0, 3, false).
		AddItem(activityView, 0, 2, false).
		AddItem(outputView, 0, 2, false)

	mainLayout := tview.NewFlex().
		AddItem(personasTable, 0, 1, true).
		AddItem(right, 0, 2, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(mainLayout, 0, 12, true).
		AddItem(promptInput, 3, 0, false).
		AddItem(statusView, 3, 0, false)

	var selMu sync.Mutex
	var selected string
	var lastSummaries []crew.Summary
	getSelected := func() string {
		selMu.Lock()
		defer selMu.Unlock()
		return selected
	}
	setSelected := func(id string) {
		selMu.Lock()
		defer selMu.Unlock()
		selected = id
	}

	setStatusUI := func(msg string) {
		statusView.SetText(msg)
	}

	// refresh reads state off the UI goroutine and queues the redraw.
	refresh := func() {
		summaries, err := a.crew.Summaries(ctx)
		if err != nil {
			app.QueueUpdateDraw(func() {
				personasTable.Clear()
				personasTable.SetCell(0, 0, tview.NewTableCell(fmt.Sprintf("load error: %v", err)).SetTextColor(tview.Styles.ContrastSecondaryTextColor))
			})
			return
		}
		current := getSelected()
		if current == "" && len(summaries) > 0 {
			current = summaries[0].ID
		}
		var snap tracker.Snapshot
		var entries []domain.Activity
		var detailErr error
		if current != "" {
			tr, err := a.crew.Tracker(ctx, current)
			if err == nil {
				snap = tr.Snapshot()
				entries, err = tr.Activity(ctx, dashboardActivityLimit)
			}
			detailErr = err
		}
		app.QueueUpdateDraw(func() {
			lastSummaries = summaries
			setSelected(current)
			renderPersonasTable(personasTable, summaries, current)
			promptInput.SetLabel("Command -> " + current + ": ")
			if detailErr != nil {
				tasksView.SetText(fmt.Sprintf("error: %v", detailErr))
				activityView.SetText("")
				return
			}
			tasksView.SetText(renderTasks(snap))
			activityView.SetText(renderActivity(entries))
		})
	}

	runCommand := func(line string) {
		args := strings.Fields(line)
		target := getSelected()
		if len(args) == 0 || target == "" {
			return
		}
		promptInput.SetText("")
		setStatusUI("Running " + args[0] + " on " + target + "...")
		go func() {
			var out bytes.Buffer
			err := a.dispatch(ctx, target, args, &out, &out, false)
			app.QueueUpdateDraw(func() {
				outputView.SetText(strings.TrimRight(out.String(), "\n"))
				outputView.ScrollToBeginning()
				if err != nil {
					statusView.SetText("Command failed: " + err.Error())
					return
				}
				statusView.SetText("Ran " + args[0] + " on " + target)
			})
			refresh()
		}()
	}

	promptInput.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		runCommand(promptInput.GetText())
	})

	personasTable.SetSelectedFunc(func(row, _ int) {
		if row <= 0 || row > len(lastSummaries) {
			return
		}
		setSelected(lastSummaries[row-1].ID)
		setStatusUI("Selected " + lastSummaries[row-1].ID)
		go refresh()
	})

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF10:
			app.Stop()
			return nil
		case tcell.KeyF5:
			go refresh()
			setStatusUI("Manual refresh")
			return nil
		case tcell.KeyCtrlL:
			app.SetFocus(promptInput)
			setStatusUI("Focus -> prompt")
			return nil
		case tcell.KeyCtrlT, tcell.KeyEscape:
			app.SetFocus(personasTable)
			setStatusUI("Focus -> personas")
			return nil
		case tcell.KeyTAB:
			if app.GetFocus() == promptInput {
				app.SetFocus(personasTable)
			} else {
				app.SetFocus(promptInput)
			}
			return nil
		}
		return event
	})

	events := a.events.Subscribe("dashboard")
	defer a.events.Unsubscribe("dashboard")
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		refresh()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				refresh()
			case entry, ok := <-events:
				if !ok {
					return
				}
				a.logger.Debug("activity", zap.String("persona", entry.Persona), zap.String("action", string(entry.Action)))
				refresh()
			}
		}
	}()

	if err := app.SetRoot(root, true).EnableMouse(true).SetFocus(personasTable).Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

func renderPersonasTable(table *tview.Table, summaries []crew.Summary, selected string) {
	table.Clear()
	headers := []string{"Persona", "Phase", "Current", "Done", "Ideas"}
	for i, h := range headers {
		table.SetCell(0, i, tview.NewTableCell(h).SetSelectable(false).SetAttributes(tcell.AttrBold))
	}
	for i, s := range summaries {
		row := i + 1
		table.SetCell(row, 0, tview.NewTableCell(s.ID))
		table.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf("%d", s.Phase)))
		table.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", s.CurrentTasks)))
		table.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf("%d", s.CompletedTasks)))
		table.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf("%d", s.Improvements)))
		if s.ID == selected {
			table.Select(row, 0)
		}
	}
}

func renderTasks(snap tracker.Snapshot) string {
	if len(snap.Current) == 0 && len(snap.Completed) == 0 {
		return "No tasks"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[yellow]Current (%d)[-]\n", len(snap.Current)))
	for _, t := range snap.Current {
		b.WriteString(fmt.Sprintf(
			"%d  %-6s %4.1fh  %s\n",
			t.ID,
			t.Priority,
			t.EstimatedHours,
			tview.Escape(trimLine(t.Description, 64)),
		))
	}
	b.WriteString(fmt.Sprintf("[green]Completed (%d)[-]\n", len(snap.Completed)))
	for i := len(snap.Completed) - 1; i >= 0; i-- {
		t := snap.Completed[i]
		done := ""
		if t.CompletedAt != nil {
			done = t.CompletedAt.Local().Format("01-02 15:04")
		}
		b.WriteString(fmt.Sprintf("%d  %s  %s\n", t.ID, done, tview.Escape(trimLine(t.Description, 64))))
		if t.CompletionNotes != "" {
			b.WriteString("  notes: " + tview.Escape(trimLine(t.CompletionNotes, 80)) + "\n")
		}
	}
	return b.String()
}

func renderActivity(items []domain.Activity) string {
	if len(items) == 0 {
		return "No activity"
	}
	var b strings.Builder
	for _, e := range items {
		b.WriteString(fmt.Sprintf(
			"[%s] %s #%d\n",
			e.CreatedAt.Local().Format("15:04:05"),
			e.Action,
			e.RefID,
		))
		if len(e.Detail) > 0 {
			b.WriteString("  " + tview.Escape(trimLine(string(e.Detail), 120)) + "\n")
		}
	}
	return b.String()
}

// trimLine flattens v to one line of at most max runes.
func trimLine(v string, max int) string {
	v = strings.ReplaceAll(strings.TrimSpace(v), "\n", " ")
	runes := []rune(v)
	if max <= 3 || len(runes) <= max {
		return v
	}
	return string(runes[:max-3]) + "..."
}
