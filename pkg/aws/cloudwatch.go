package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"go.uber.org/zap/zapcore"
)

// LogRetentionDays is applied to the log group on creation.
const LogRetentionDays = 30

// PutEventsTimeout bounds a single PutLogEvents call.
const PutEventsTimeout = 5 * time.Second

type cloudWatchLogsAPI interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	PutRetentionPolicy(ctx context.Context, params *cloudwatchlogs.PutRetentionPolicyInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchLogsClient ships each written log line to one CloudWatch log
// stream. It is the io.Writer behind the logger's JSON tee.
type CloudWatchLogsClient struct {
	client  cloudWatchLogsAPI
	group   string
	stream  string
	enabled bool

	timeout time.Duration

	mu    sync.Mutex
	token *string
}

// NewCloudWatchLogsClient prepares group and a fresh stream named after
// the service and start time. A disabled client makes no AWS calls.
func NewCloudWatchLogsClient(ctx context.Context, cfg sdkaws.Config, group, serviceName string, enabled bool) (*CloudWatchLogsClient, error) {
	c := &CloudWatchLogsClient{
		client:  cloudwatchlogs.NewFromConfig(cfg),
		group:   group,
		stream:  fmt.Sprintf("%s-%d", serviceName, time.Now().Unix()),
		enabled: enabled,
	}
	if !enabled {
		return c, nil
	}
	if err := c.setup(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CloudWatchLogsClient) setup(ctx context.Context) error {
	_, err := c.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: sdkaws.String(c.group)})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return fmt.Errorf("create log group %s: %w", c.group, err)
	}

	if _, err := c.client.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    sdkaws.String(c.group),
		RetentionInDays: sdkaws.Int32(LogRetentionDays),
	}); err != nil {
		return fmt.Errorf("set retention on %s: %w", c.group, err)
	}

	if _, err := c.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(c.group),
		LogStreamName: sdkaws.String(c.stream),
	}); err != nil {
		return fmt.Errorf("create log stream %s: %w", c.stream, err)
	}
	return nil
}

// IsEnabled returns whether CloudWatch logging is enabled
func (c *CloudWatchLogsClient) IsEnabled() bool {
	return c != nil && c.enabled
}

// Buffered wraps the client for use as a zap sink. Log lines are batched in
// memory and shipped from a background flush, so callers never wait on
// CloudWatch. Stop must be called on shutdown to flush the tail.
func (c *CloudWatchLogsClient) Buffered(flushInterval time.Duration) *zapcore.BufferedWriteSyncer {
	return &zapcore.BufferedWriteSyncer{
		WS:            zapcore.AddSync(c),
		FlushInterval: flushInterval,
	}
}

// Write implements io.Writer. Each non-empty line of p becomes one log
// event. Delivery failures go to stderr and are never returned, so logging
// cannot fail a request.
func (c *CloudWatchLogsClient) Write(p []byte) (int, error) {
	if !c.IsEnabled() {
		return len(p), nil
	}

	now := sdkaws.Int64(time.Now().UnixMilli())
	var events []types.InputLogEvent
	for _, line := range bytes.Split(p, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		events = append(events, types.InputLogEvent{Message: sdkaws.String(string(line)), Timestamp: now})
	}
	if len(events) == 0 {
		return len(p), nil
	}
	if err := c.putEvents(context.Background(), events...); err != nil {
		fmt.Fprintf(os.Stderr, "cloudwatch logs: %v\n", err)
	}
	return len(p), nil
}

func (c *CloudWatchLogsClient) putEvents(ctx context.Context, events ...types.InputLogEvent) error {
	timeout := c.timeout
	if timeout <= 0 {
		timeout = PutEventsTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := c.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  sdkaws.String(c.group),
		LogStreamName: sdkaws.String(c.stream),
		LogEvents:     events,
		SequenceToken: c.token,
	})
	if err != nil {
		return err
	}
	c.token = out.NextSequenceToken
	return nil
}
