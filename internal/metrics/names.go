package metrics

import "fmt"

// Metric names reported by the pipeline.
const (
	UpdatesReceived   = "updates_received"
	UpdatesProcessed  = "updates_processed"
	UpdatesFailed     = "updates_failed"
	UpdatesDropped    = "updates_dropped"
	UpdatesNoMatch    = "updates_no_match"
	UpdatesQueued     = "updates_queued"
	UpdateProcessTime = "update_process_time_nanoseconds"
	DecodeErrors      = "decode_errors"
	FilteredOut       = "filtered_out"
	ProcessorErrors   = "processor_errors"

	DatasourceStartFailures = "datasource_start_failures"
	DatasourceClosed        = "datasource_closed"
	DatasourceFailures      = "datasource_failures"
	DatasourcesActive       = "datasources_active"
)

// PerKind suffixes name with an update kind, e.g. "updates_processed_account".
func PerKind(name string, kind fmt.Stringer) string {
	return name + "_" + kind.String()
}
