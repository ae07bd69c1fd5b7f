package utils

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

const sectionWidth = 48

// DetailBuilder builds sectioned key-value reports for the terminal and
// the status dashboard.
type DetailBuilder struct {
	b            strings.Builder
	labelStyle   lipgloss.Style
	sectionStyle lipgloss.Style
}

// NewDetailBuilder creates a builder with a fixed-width label column.
// sectionStyle also styles the labels.
func NewDetailBuilder(labelWidth int, sectionStyle lipgloss.Style) *DetailBuilder {
	return &DetailBuilder{
		labelStyle:   sectionStyle.Width(labelWidth),
		sectionStyle: sectionStyle,
	}
}

func (d *DetailBuilder) Row(label, value string) {
	fmt.Fprintf(&d.b, "  %s %s\n", d.labelStyle.Render(label), value)
}

// Section writes a heading like "── title ──────...".
func (d *DetailBuilder) Section(title string) {
	pad := max(sectionWidth-len(title), 4)
	heading := fmt.Sprintf("  ── %s %s", title, strings.Repeat("─", pad))
	d.b.WriteString(d.sectionStyle.Render(heading) + "\n")
}

// Line writes one indented free-form line.
func (d *DetailBuilder) Line(format string, args ...any) {
	d.b.WriteString("  ")
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteString("\n")
}

func (d *DetailBuilder) Blank() {
	d.b.WriteString("\n")
}

func (d *DetailBuilder) String() string {
	return d.b.String()
}
