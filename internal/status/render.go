package status

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"natify.dev/natify/internal/aws/logs"
	"natify.dev/natify/internal/aws/vpc"
	"natify.dev/natify/internal/tui/theme"
	"natify.dev/natify/internal/utils"
)

// Style controls coloring of a rendered report. PlainStyle emits no escape
// sequences and is used when output is not a terminal.
type Style struct {
	Section lipgloss.Style
	OK      lipgloss.Style
	Warn    lipgloss.Style
	Bad     lipgloss.Style
	Muted   lipgloss.Style
}

func ThemeStyle() Style {
	return Style{
		Section: theme.MutedStyle,
		OK:      theme.SuccessStyle,
		Warn:    lipgloss.NewStyle().Foreground(theme.Warning).Bold(true),
		Bad:     theme.ErrorStyle,
		Muted:   theme.MutedStyle,
	}
}

func PlainStyle() Style {
	plain := lipgloss.NewStyle()
	return Style{Section: plain, OK: plain, Warn: plain, Bad: plain, Muted: plain}
}

func (st Style) routeState(s RouteState) string {
	switch s {
	case RouteOK:
		return st.OK.Render(string(s))
	case RouteDrift:
		return st.Warn.Render(string(s))
	default:
		return st.Bad.Render(string(s))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Render formats a snapshot as a sectioned text report.
func Render(snap Snapshot, st Style) string {
	db := utils.NewDetailBuilder(20, st.Section)

	db.Section("VPC")
	db.Row("VPC ID", snap.VPC.VPCID)
	db.Row("Name", orDash(snap.VPC.Name))
	db.Row("CIDR", snap.VPC.CIDR)
	db.Row("Collected", utils.TimeOrDash(snap.CollectedAt, utils.DateTimeSec))
	db.Blank()

	db.Section("NAT Instance")
	if inst := snap.Instance; inst != nil {
		db.Row("Instance ID", inst.InstanceID)
		db.Row("Name", orDash(inst.Name))
		db.Row("State", inst.State)
		db.Row("Private IP", orDash(inst.PrivateIP))
		check := st.OK.Render("disabled")
		if inst.SourceDestCheck {
			check = st.Bad.Render("enabled")
		}
		db.Row("Src/Dst Check", check)
	} else {
		db.Line("%s", st.Muted.Render("not configured"))
	}
	db.Blank()

	db.Section(fmt.Sprintf("Private Subnets (%d, %d drifted)", len(snap.Routes), snap.Drifted()))
	if len(snap.Routes) == 0 {
		db.Line("%s", st.Muted.Render("none"))
	}
	for _, r := range snap.Routes {
		table := orDash(r.RouteTableID)
		if r.RouteTableName != "" {
			table += " (" + r.RouteTableName + ")"
		}
		if r.ViaMainTable {
			table += " [main]"
		}
		db.Line("%-8s %s %s -> %s -> %s",
			st.routeState(r.State),
			r.SubnetID,
			st.Muted.Render(r.SubnetName),
			table,
			orDash(r.Target),
		)
	}
	db.Blank()

	db.Section("Security Group Ingress")
	if len(snap.Ingress) == 0 {
		db.Line("%s", st.Muted.Render("none"))
	}
	for _, r := range snap.Ingress {
		db.Line("%s", ingressLine(r, st))
	}
	db.Blank()

	db.Section("Trigger")
	tr := snap.Trigger
	switch {
	case tr.StateMachineName == "":
		db.Row("State Machine", st.Muted.Render("not configured"))
	case !tr.Found:
		db.Row("State Machine", tr.StateMachineName+" "+st.Muted.Render("(not found)"))
	case tr.Armed:
		db.Row("State Machine", utils.ShortName(tr.StateMachineARN)+" "+st.Warn.Render("armed"))
	default:
		db.Row("State Machine", utils.ShortName(tr.StateMachineARN)+" "+st.OK.Render("disarmed"))
	}
	if tr.RuleName != "" {
		db.Row("Rule", fmt.Sprintf("%s %s %s", tr.RuleName, orDash(tr.RuleState), st.Muted.Render(tr.Schedule)))
	}

	if len(snap.Activity) > 0 {
		db.Blank()
		db.Section("Recent Activity")
		for _, e := range snap.Activity {
			db.Line("%s", activityLine(e, st))
		}
	}

	if len(snap.Errors) > 0 {
		db.Blank()
		db.Section("Errors")
		for _, e := range snap.Errors {
			db.Line("%s", st.Bad.Render(e))
		}
	}
	return db.String()
}

func ingressLine(r vpc.SecurityGroupRule, st Style) string {
	line := fmt.Sprintf("%-6s %-10s %s", r.Protocol, r.PortRange, r.Source)
	if r.Description != "" {
		line += " " + st.Muted.Render(r.Description)
	}
	return strings.TrimRight(line, " ")
}

func activityLine(e logs.LogEvent, st Style) string {
	at := st.Muted.Render(utils.TimeOrDash(e.Timestamp, utils.DateTimeSec))
	if e.Msg == "" {
		return at + " " + e.Message
	}

	msg := e.Msg
	switch e.Level {
	case "ERROR":
		msg = st.Bad.Render(msg)
	case "WARN":
		msg = st.Warn.Render(msg)
	}

	var detail []string
	for _, key := range []string{"step", "status", "route_table", "target", "error"} {
		if v := e.Attr(key); v != "" {
			detail = append(detail, key+"="+v)
		}
	}
	if len(detail) == 0 {
		return at + " " + msg
	}
	return at + " " + msg + " " + st.Muted.Render(strings.Join(detail, " "))
}
