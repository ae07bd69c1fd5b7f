package logs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

type CloudWatchLogsAPI interface {
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

type Client struct {
	api CloudWatchLogsAPI
}

func NewClient(api CloudWatchLogsAPI) *Client {
	return &Client{api: api}
}

// LambdaLogGroup is the log group Lambda writes a function's output to.
func LambdaLogGroup(functionName string) string {
	return "/aws/lambda/" + functionName
}

// Query selects events from one log group.
type Query struct {
	Group   string
	Since   time.Time
	Pattern string // CloudWatch filter pattern, empty for all events
	Limit   int
}

// RecentEvents returns up to Limit of the newest matching events across
// all streams in the group, oldest first.
func (c *Client) RecentEvents(ctx context.Context, q Query) ([]LogEvent, error) {
	in := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(q.Group),
	}
	if !q.Since.IsZero() {
		in.StartTime = aws.Int64(q.Since.UnixMilli())
	}
	if q.Pattern != "" {
		in.FilterPattern = aws.String(q.Pattern)
	}

	var events []LogEvent
	for {
		out, err := c.api.FilterLogEvents(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("FilterLogEvents: %w", err)
		}

		for _, e := range out.Events {
			events = append(events, parseEvent(
				time.UnixMilli(aws.ToInt64(e.Timestamp)),
				aws.ToString(e.LogStreamName),
				aws.ToString(e.Message),
			))
		}

		if out.NextToken == nil {
			break
		}
		in.NextToken = out.NextToken
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	if q.Limit > 0 && len(events) > q.Limit {
		events = events[len(events)-q.Limit:]
	}
	return events, nil
}

func parseEvent(ts time.Time, stream, message string) LogEvent {
	ev := LogEvent{Timestamp: ts, Stream: stream, Message: strings.TrimRight(message, "\n")}

	var record map[string]any
	if json.Unmarshal([]byte(ev.Message), &record) != nil {
		return ev
	}
	ev.Level, _ = record["level"].(string)
	ev.Msg, _ = record["msg"].(string)
	delete(record, "time")
	delete(record, "level")
	delete(record, "msg")
	ev.Attrs = record
	return ev
}
