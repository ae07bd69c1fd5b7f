package events

type Rule struct {
	Name               string
	ARN                string
	State              string
	ScheduleExpression string
}
