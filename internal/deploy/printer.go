package deploy

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-isatty"

	"natify.dev/natify/internal/aws/cfn"
	"natify.dev/natify/internal/tui/theme"
)

// Printer writes one progress line per state transition. Colors are only
// used when writing to a terminal.
type Printer struct {
	w          io.Writer
	styled     bool
	lastStatus map[string]string
}

func NewPrinter(w io.Writer) *Printer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{w: w, styled: styled, lastStatus: make(map[string]string)}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p *Printer) state(s State) string {
	return p.style(lipgloss.NewStyle().Foreground(theme.StatusColor(string(s))).Bold(true), string(s))
}

func subject(stack string) string {
	if stack == "" {
		return "gate"
	}
	return stack
}

func (p *Printer) Transition(t Transition) {
	line := fmt.Sprintf("%s %-24s %s",
		p.style(theme.MutedStyle, t.At.Format("15:04:05")),
		subject(t.Stack),
		p.state(t.To),
	)
	if t.Detail != "" {
		line += " " + p.style(theme.MutedStyle, t.Detail)
	}
	fmt.Fprintln(p.w, line)
}

// StackStatus prints a CloudFormation status once per change.
func (p *Printer) StackStatus(stack, status string, attempt int) {
	if p.lastStatus[stack] == status {
		return
	}
	p.lastStatus[stack] = status
	fmt.Fprintf(p.w, "  %-24s %s %s\n",
		stack,
		p.style(lipgloss.NewStyle().Foreground(theme.StatusColor(status)), status),
		p.style(theme.MutedStyle, fmt.Sprintf("(poll %d)", attempt)),
	)
}

func (p *Printer) GateCheck(attempt int, summary RunSummary) {
	fmt.Fprintf(p.w, "  %-24s %s %s\n",
		"gate",
		summary.String(),
		p.style(theme.MutedStyle, fmt.Sprintf("(check %d)", attempt)),
	)
}

func (p *Printer) Outputs(stack cfn.Stack) {
	if len(stack.Outputs) == 0 {
		return
	}
	outputs := append([]cfn.Output(nil), stack.Outputs...)
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Key < outputs[j].Key })

	fmt.Fprintln(p.w, p.style(theme.HeaderStyle.Padding(0), "Outputs: "+stack.Name))
	for _, o := range outputs {
		fmt.Fprintf(p.w, "  %s = %s\n", p.style(theme.AccentStyle, o.Key), o.Value)
	}
}

func (p *Printer) Summary(report Report) {
	for _, s := range report.Stacks {
		if s.State == StateSuccess {
			p.Outputs(s.Stack)
		}
	}

	if report.Succeeded() {
		fmt.Fprintln(p.w, p.style(theme.SuccessStyle, "Deployment complete"))
		return
	}

	fmt.Fprintln(p.w, p.style(theme.ErrorStyle, "Deployment failed"))
	for _, s := range report.Stacks {
		if s.Err == nil {
			continue
		}
		for _, line := range strings.Split(s.Err.Error(), "\n") {
			fmt.Fprintln(p.w, "  "+line)
		}
	}
}
