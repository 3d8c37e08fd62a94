package ping

import (
	"net/http"
	"time"
)

// Report is the aggregate outcome of one invocation.
type Report struct {
	OverallOK bool      `json:"overall_ok"`
	Timestamp time.Time `json:"timestamp"`
	Results   []Result  `json:"results"`
}

// NewReport aggregates results. An empty result set is healthy.
func NewReport(results []Result, now time.Time) Report {
	if results == nil {
		results = []Result{}
	}

	overall := true
	for _, r := range results {
		if !r.OK {
			overall = false
			break
		}
	}

	return Report{
		OverallOK: overall,
		Timestamp: now.UTC(),
		Results:   results,
	}
}

// Failed returns the results that were not ok.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.OK {
			failed = append(failed, res)
		}
	}
	return failed
}

// StatusCode maps the aggregate to the HTTP status returned to the caller.
func (r Report) StatusCode() int {
	if r.OverallOK {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// ErrorBody is returned instead of a Report when no ping could be attempted.
type ErrorBody struct {
	OverallOK bool        `json:"overall_ok"`
	Timestamp time.Time   `json:"timestamp"`
	Error     ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const KindConfiguration = "configuration_error"

// NewConfigurationErrorBody describes an invocation that failed before any
// target was pinged.
func NewConfigurationErrorBody(err error, now time.Time) ErrorBody {
	return ErrorBody{
		OverallOK: false,
		Timestamp: now.UTC(),
		Error: ErrorDetail{
			Kind:    KindConfiguration,
			Message: err.Error(),
		},
	}
}
