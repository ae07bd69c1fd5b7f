package logs

import "time"

// LogEvent is one CloudWatch log line. Level and Msg are filled in when
// the line is a JSON slog record.
type LogEvent struct {
	Timestamp time.Time
	Stream    string
	Message   string
	Level     string
	Msg       string
	Attrs     map[string]any
}

// Attr returns a string attribute of a structured record.
func (e LogEvent) Attr(key string) string {
	if s, ok := e.Attrs[key].(string); ok {
		return s
	}
	return ""
}
