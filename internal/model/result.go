package model

import "time"

// IngestResult captures metrics from a single file ingest run.
type IngestResult struct {
	FacilityID        string
	FilePath          string
	Format            string
	TotalRecords      int64
	SuccessfulRecords int64
	FailedRecords     int64
	Errors            []string
	ProcessingTime    time.Duration
	IngestedAt        time.Time
}

// maxReportedErrors caps how many row-level messages surface in a
// human-facing summary. The full list stays on the result.
const maxReportedErrors = 5

// ErrorSample returns up to maxReportedErrors messages for log output.
func (r *IngestResult) ErrorSample() []string {
	if len(r.Errors) <= maxReportedErrors {
		return r.Errors
	}
	return r.Errors[:maxReportedErrors]
}
