package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/logging/logadmin"
	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/sluicelabs/sluice/internal/job"
)

// cpuMetricFilter selects instance CPU utilization time series.
const cpuMetricFilter = `metric.type = "compute.googleapis.com/instance/cpu/utilization"`

// Client retrieves logs and metrics for one project. Construct with New and
// close when done.
type Client struct {
	projectID string
	logs      *logadmin.Client
	metrics   *monitoring.MetricClient
}

// New builds a monitoring client for projectID using application-default
// credentials.
func New(ctx context.Context, projectID string) (*Client, error) {
	logs, err := logadmin.NewClient(ctx, "projects/"+projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging client: %w", err)
	}
	metrics, err := monitoring.NewMetricClient(ctx)
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("failed to create monitoring client: %w", err)
	}
	return &Client{projectID: projectID, logs: logs, metrics: metrics}, nil
}

// Close releases both underlying clients.
func (c *Client) Close() error {
	logErr := c.logs.Close()
	metricErr := c.metrics.Close()
	if logErr != nil {
		return logErr
	}
	return metricErr
}

// FetchLogs runs q and renders up to limit matching entries, newest first.
func (c *Client) FetchLogs(ctx context.Context, q LogQuery, limit int) job.Result {
	filter, err := q.Filter()
	if err != nil {
		return job.Result{Status: job.StatusError, Report: err.Error()}
	}
	if limit <= 0 {
		limit = 50
	}

	var lines []string
	it := c.logs.Entries(ctx, logadmin.Filter(filter), logadmin.NewestFirst())
	for len(lines) < limit {
		entry, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return job.Result{
				Status: job.StatusError,
				Report: fmt.Sprintf("log retrieval failed for filter %q: %v", filter, err),
			}
		}
		lines = append(lines, fmt.Sprintf("  [%s] %s %v",
			entry.Timestamp.Format(time.RFC3339), entry.Severity, entry.Payload))
	}

	if len(lines) == 0 {
		return job.Result{
			Status: job.StatusSuccess,
			Report: fmt.Sprintf("No log entries matched filter: %s", filter),
		}
	}
	return job.Result{
		Status: job.StatusSuccess,
		Report: fmt.Sprintf("Log entries (filter: %s):\n%s", filter, strings.Join(lines, "\n")),
	}
}

// CPUUtilization reports mean CPU utilization per VM instance over the last
// five minutes, aligned to one-minute windows and grouped by instance and
// zone.
func (c *Client) CPUUtilization(ctx context.Context) job.Result {
	now := time.Now()
	req := &monitoringpb.ListTimeSeriesRequest{
		Name:   "projects/" + c.projectID,
		Filter: cpuMetricFilter,
		Interval: &monitoringpb.TimeInterval{
			StartTime: timestamppb.New(now.Add(-5 * time.Minute)),
			EndTime:   timestamppb.New(now),
		},
		View: monitoringpb.ListTimeSeriesRequest_FULL,
		Aggregation: &monitoringpb.Aggregation{
			AlignmentPeriod:    durationpb.New(time.Minute),
			PerSeriesAligner:   monitoringpb.Aggregation_ALIGN_MEAN,
			CrossSeriesReducer: monitoringpb.Aggregation_REDUCE_MEAN,
			GroupByFields:      []string{"resource.label.instance_id", "resource.label.zone"},
		},
	}

	var lines []string
	it := c.metrics.ListTimeSeries(ctx, req)
	for {
		series, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return job.Result{
				Status: job.StatusError,
				Report: fmt.Sprintf("CPU utilization query failed: %v", err),
			}
		}

		labels := series.GetResource().GetLabels()
		lines = append(lines, fmt.Sprintf("  Instance ID: %s, Zone: %s",
			labels["instance_id"], labels["zone"]))
		for _, point := range series.GetPoints() {
			lines = append(lines, fmt.Sprintf("    Timestamp: %s, Value: %.2f%%",
				point.GetInterval().GetEndTime().AsTime().Format(time.RFC3339),
				point.GetValue().GetDoubleValue()*100))
		}
	}

	if len(lines) == 0 {
		return job.Result{
			Status: job.StatusSuccess,
			Report: "No CPU utilization data found for the specified project and time range.",
		}
	}
	return job.Result{
		Status: job.StatusSuccess,
		Report: "CPU Utilization Data:\n" + strings.Join(lines, "\n"),
	}
}
