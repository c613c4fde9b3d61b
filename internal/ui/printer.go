// Package ui renders engine results for the terminal. Reports go to the
// output writer; progress and error messages go to the error writer.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/suggest"
)

// Printer writes styled reports. Color is enabled only when out is a
// terminal that supports it.
type Printer struct {
	out io.Writer
	err io.Writer
	s   styles
}

// New returns a Printer writing reports to out and messages to errOut.
func New(out, errOut io.Writer) *Printer {
	return &Printer{
		out: out,
		err: errOut,
		s:   newStyles(lipgloss.NewRenderer(out)),
	}
}

// Error prints a failure message.
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.err, p.s.errorMsg.Render("error: ")+msg)
}

// Info prints a de-emphasized progress message.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.err, p.s.muted.Render(msg))
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// CriticalPath prints the schedule table followed by the critical path.
func (p *Printer) CriticalPath(res *cpm.Result) {
	if len(res.Tasks) == 0 {
		fmt.Fprintln(p.out, p.s.muted.Render("no tasks"))
		return
	}
	fmt.Fprintf(p.out, "%s %s\n",
		p.s.heading.Render("Critical path"),
		p.s.muted.Render(fmt.Sprintf("· %d tasks · %s total", len(res.Tasks), hours(res.TotalDuration))))

	rows := make([][]string, 0, len(res.Tasks))
	critical := make([]bool, 0, len(res.Tasks))
	for _, s := range res.Tasks {
		mark := iconWaiting
		if s.Critical {
			mark = iconCritical
		}
		rows = append(rows, []string{
			mark,
			s.Task.ID,
			s.Task.Title,
			hours(s.Task.DurationHours),
			hours(s.EarliestStart),
			hours(s.EarliestFinish),
			hours(s.LatestStart),
			hours(s.LatestFinish),
			hours(s.Slack),
		})
		critical = append(critical, s.Critical)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.s.border).
		Headers("", "TASK", "TITLE", "DUR", "ES", "EF", "LS", "LF", "SLACK").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return p.s.label.Padding(0, 1)
			case row >= 0 && row < len(critical) && critical[row]:
				return p.s.critical.Padding(0, 1)
			default:
				return p.s.normal.Padding(0, 1)
			}
		})
	fmt.Fprintln(p.out, t.Render())

	path := make([]string, len(res.CriticalPath))
	for i, id := range res.CriticalPath {
		path[i] = p.s.critical.Render(id)
	}
	fmt.Fprintf(p.out, "%s %s\n", p.s.label.Render("path:"), strings.Join(path, p.s.muted.Render(" → ")))

	if len(res.Components) > 1 {
		for _, c := range res.Components {
			fmt.Fprintf(p.out, "%s %d tasks, completes at %s\n",
				p.s.muted.Render(fmt.Sprintf("component %d:", c.Index)),
				len(c.TaskIDs), hours(c.CompletionTime))
		}
	}
}

// Chain prints the upstream and downstream dependencies of a task,
// indented by depth.
func (p *Printer) Chain(ch *dag.Chain) {
	fmt.Fprintln(p.out, p.s.heading.Render("Dependency chain of "+ch.TaskID))
	p.chainSide("upstream", ch.Predecessors)
	p.chainSide("downstream", ch.Successors)
	if ch.Truncated {
		fmt.Fprintln(p.out, p.s.blocked.Render(iconBlocked+" chain truncated at the depth limit"))
	}
}

func (p *Printer) chainSide(label string, links []dag.ChainLink) {
	fmt.Fprintln(p.out, p.s.label.Render(label+":"))
	if len(links) == 0 {
		fmt.Fprintln(p.out, "  "+p.s.muted.Render("none"))
		return
	}
	for _, l := range links {
		fmt.Fprintf(p.out, "%s%s %s\n",
			strings.Repeat("  ", l.Depth),
			l.TaskID,
			p.s.muted.Render(fmt.Sprintf("(%s, depth %d)", l.Type, l.Depth)))
	}
}

// Available prints tasks that can start now.
func (p *Printer) Available(tasks []dag.Task) {
	fmt.Fprintln(p.out, p.s.heading.Render(fmt.Sprintf("Available (%d)", len(tasks))))
	for _, t := range tasks {
		fmt.Fprintf(p.out, "  %s %s\n", p.statusIcon(t.Status), p.taskLine(t))
	}
}

// Blocked prints waiting tasks with the predecessors holding them up.
func (p *Printer) Blocked(blocked []dag.BlockedTask) {
	fmt.Fprintln(p.out, p.s.heading.Render(fmt.Sprintf("Blocked (%d)", len(blocked))))
	for _, b := range blocked {
		ids := make([]string, len(b.BlockingPredecessors))
		for i, t := range b.BlockingPredecessors {
			ids[i] = t.ID
		}
		fmt.Fprintf(p.out, "  %s %s %s\n",
			p.s.blocked.Render(iconBlocked),
			p.taskLine(b.Task),
			p.s.muted.Render("waiting on "+strings.Join(ids, ", ")))
	}
}

// Suggestions prints ranked predecessor suggestions.
func (p *Printer) Suggestions(taskID string, list []suggest.Suggestion) {
	fmt.Fprintln(p.out, p.s.heading.Render("Suggested predecessors for "+taskID))
	if len(list) == 0 {
		fmt.Fprintln(p.out, "  "+p.s.muted.Render("none"))
		return
	}
	for i, s := range list {
		fmt.Fprintf(p.out, "  %d. %s %s\n     %s\n",
			i+1,
			p.taskLine(s.Task),
			p.s.label.Render(fmt.Sprintf("score %d", s.Score)),
			p.s.muted.Render(s.Reason()))
	}
}

// Validation prints whether a proposed dependency is acceptable.
func (p *Printer) Validation(pred, succ string, v dag.Validation) {
	if v.Valid {
		fmt.Fprintf(p.out, "%s %s → %s can be added\n", p.s.done.Render(iconDone), pred, succ)
		return
	}
	fmt.Fprintf(p.out, "%s %s → %s rejected: %s\n", p.s.blocked.Render(iconBlocked), pred, succ, v.Reason)
}

// EdgeAdded confirms a stored dependency.
func (p *Printer) EdgeAdded(e dag.Edge) {
	fmt.Fprintf(p.out, "%s %s → %s %s\n",
		p.s.done.Render(iconDone), e.PredecessorID, e.SuccessorID,
		p.s.muted.Render(fmt.Sprintf("(%s, id %s)", e.Type, e.ID)))
}

func (p *Printer) taskLine(t dag.Task) string {
	line := t.ID
	if t.Title != "" {
		line += " " + p.s.normal.Render(t.Title)
	}
	return line
}

func (p *Printer) statusIcon(s dag.Status) string {
	switch s {
	case dag.StatusCompleted:
		return p.s.done.Render(iconDone)
	case dag.StatusInProgress:
		return p.s.working.Render(iconWorking)
	case dag.StatusCancelled:
		return p.s.muted.Render(iconSkipped)
	default:
		return p.s.muted.Render(iconWaiting)
	}
}

// hours formats a duration in hours with at most two decimals.
func hours(h float64) string {
	s := strconv.FormatFloat(h, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		s = "0"
	}
	return s + "h"
}
