package tui

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"natify.dev/natify/internal/status"
	"natify.dev/natify/internal/tui/theme"
	"natify.dev/natify/internal/utils"
)

type Collector interface {
	Collect(ctx context.Context, t status.Target) (status.Snapshot, error)
}

// Messages
type snapshotMsg struct {
	snap status.Snapshot
	err  error
}

// tickMsg carries the refresh generation that scheduled it. Ticks from an
// older generation are dropped so a manual refresh never doubles the
// polling rate.
type tickMsg struct {
	gen int
}

// Model is the NAT failover status dashboard.
type Model struct {
	collector Collector
	target    status.Target
	profile   string
	region    string
	accountID string
	interval  time.Duration

	snap    *status.Snapshot
	err     error
	loading bool
	paused  bool
	gen     int

	spinner spinner.Model
	table   table.Model
	width   int
	height  int
}

func NewModel(collector Collector, target status.Target, profile, region, accountID string, interval time.Duration) Model {
	t := table.New(
		table.WithColumns(routeColumns(80)),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(8),
		table.WithWidth(80),
	)
	t.SetStyles(theme.DefaultTableStyles())

	return Model{
		collector: collector,
		target:    target,
		profile:   profile,
		region:    region,
		accountID: accountID,
		interval:  interval,
		loading:   true,
		spinner:   theme.NewSpinner(),
		table:     t,
		width:     80,
		height:    24,
	}
}

func routeColumns(width int) []table.Column {
	fixed := 8 + 26 + 24 + 22 + 8 // state, subnet, table, target, borders
	name := max(width-fixed, 12)
	return []table.Column{
		{Title: "State", Width: 8},
		{Title: "Subnet", Width: 26},
		{Title: "Name", Width: name},
		{Title: "Route Table", Width: 24},
		{Title: "Default Target", Width: 22},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	collector, target := m.collector, m.target
	return func() tea.Msg {
		snap, err := collector.Collect(context.Background(), target)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m Model) scheduleTick() tea.Cmd {
	if m.paused || m.interval <= 0 {
		return nil
	}
	gen := m.gen
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m Model) refresh() (Model, tea.Cmd) {
	m.gen++
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m.refresh()
		case "p":
			m.paused = !m.paused
			m.gen++
			return m, m.scheduleTick()
		}

	case snapshotMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			snap := msg.snap
			m.snap = &snap
			m.table.SetRows(buildRows(snap))
		}
		return m, m.scheduleTick()

	case tickMsg:
		if msg.gen != m.gen || m.paused {
			return m, nil
		}
		return m.refresh()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m = m.resizeTable()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) resizeTable() Model {
	contentWidth := m.width - 4 // dashboardStyle Padding(1,2)
	m.table.SetColumns(routeColumns(contentWidth))
	m.table.SetWidth(contentWidth)

	tableHeight := min(max(m.height-20, 3), 15)
	m.table.SetHeight(tableHeight)
	return m
}

func buildRows(snap status.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(snap.Routes))
	for _, r := range snap.Routes {
		rt := r.RouteTableID
		if r.ViaMainTable {
			rt += " (main)"
		}
		target := r.Target
		if target == "" {
			target = "-"
		}
		rows = append(rows, table.Row{string(r.State), r.SubnetID, r.SubnetName, rt, target})
	}
	return rows
}

func (m Model) renderHeader() string {
	profileText := "default"
	if m.profile != "" {
		profileText = m.profile
	}
	parts := []string{
		titleStyle.Render("NAT Failover Status"),
		"   ",
		labelStyle.Render("vpc: ") + profileStyle.Render(m.target.VPCID),
		"   ",
	}
	if m.accountID != "" {
		parts = append(parts, labelStyle.Render("account: ")+profileStyle.Render(m.accountID), "   ")
	}
	parts = append(parts, labelStyle.Render("profile: ")+profileStyle.Render(profileText))
	if m.region != "" {
		parts = append(parts, "   ", labelStyle.Render("region: ")+profileStyle.Render(m.region))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderSummary() string {
	snap := m.snap

	nat := labelStyle.Render("NAT: ")
	if snap.Instance == nil {
		nat += labelStyle.Render("not configured")
	} else {
		nat += theme.RenderStatus(snap.Instance.State) + " " + snap.Instance.InstanceID
		if snap.Instance.SourceDestCheck {
			nat += "  " + errorStyle.Render("src/dst check on")
		}
	}

	routes := labelStyle.Render("Routes: ")
	if drifted := snap.Drifted(); drifted > 0 {
		routes += driftStyle.Render(fmt.Sprintf("%d of %d drifted", drifted, len(snap.Routes)))
	} else {
		routes += okStyle.Render(fmt.Sprintf("%d ok", len(snap.Routes)))
	}

	trigger := labelStyle.Render("Trigger: ")
	switch tr := snap.Trigger; {
	case tr.StateMachineName == "":
		trigger += labelStyle.Render("not configured")
	case !tr.Found:
		trigger += labelStyle.Render("not found")
	case tr.Armed:
		trigger += driftStyle.Render("armed")
	default:
		trigger += okStyle.Render("disarmed")
	}

	ingress := labelStyle.Render("Ingress: ")
	if len(snap.Ingress) == 0 {
		ingress += labelStyle.Render("none")
	}
	for i, r := range snap.Ingress {
		if i > 0 {
			ingress += ", "
		}
		ingress += fmt.Sprintf("%s %s from %s", r.Protocol, r.PortRange, r.Source)
	}

	line := lipgloss.JoinHorizontal(lipgloss.Top, nat, "        ", routes, "        ", trigger)
	out := line + "\n" + ingress
	if n := len(snap.Activity); n > 0 {
		last := snap.Activity[n-1]
		msg := last.Msg
		if msg == "" {
			msg = last.Message
		}
		out += "\n" + labelStyle.Render("Last activity: ") +
			utils.TimeOrDash(last.Timestamp, utils.DateTimeSec) + " " + msg
	}
	return out
}

func (m Model) renderFooter() string {
	updated := "never"
	if m.snap != nil {
		updated = utils.TimeOrDash(m.snap.CollectedAt, utils.TimeOnly)
	}
	refresh := fmt.Sprintf("every %s", m.interval)
	if m.paused {
		refresh = "paused"
	}
	footer := labelStyle.Render(fmt.Sprintf("updated %s • refresh %s", updated, refresh))
	if m.loading && m.snap != nil {
		footer += " " + m.spinner.View()
	}
	return footer
}

func (m Model) View() tea.View {
	header := m.renderHeader()

	var content string
	switch {
	case m.loading && m.snap == nil:
		content = dashboardStyle.Render(
			header + "\n\n" + m.spinner.View() + " Collecting status...\n",
		)
	case m.err != nil && m.snap == nil:
		content = dashboardStyle.Render(
			header + "\n\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) +
				"\n\n" + helpStyle.Render("Press r to retry • q to quit"),
		)
	default:
		body := headerStyle.Render(header) + "\n\n" +
			m.renderSummary() + "\n\n" +
			labelStyle.Render("Private Subnets") + "\n" + m.table.View() + "\n"
		if m.err != nil {
			body += errorStyle.Render(fmt.Sprintf("Refresh failed: %v", m.err)) + "\n"
		}
		for _, e := range m.snap.Errors {
			body += errorStyle.Render(e) + "\n"
		}
		body += m.renderFooter() + "\n" +
			helpStyle.Render("r refresh • p pause • q quit")
		content = dashboardStyle.Render(body)
	}

	v := tea.NewView(content)
	v.AltScreen = true
	return v
}
