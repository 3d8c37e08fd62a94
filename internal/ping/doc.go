// Package ping issues keepalive reads against PostgREST-style project
// endpoints and aggregates the outcomes.
//
// Each target gets exactly one GET {url}/rest/v1/{table}?select=id&limit=1
// carrying the project key in both the apikey and Authorization headers. Pings
// run concurrently, each bounded by its own timeout, and every target yields a
// Result whether it answered, was rejected, or was unreachable. There are no
// retries: the next scheduled invocation is the retry.
//
//	d := ping.NewDispatcher(10*time.Second, logger)
//	report := ping.NewReport(d.PingAll(ctx, targets), time.Now())
//	w.WriteHeader(report.StatusCode())
package ping
