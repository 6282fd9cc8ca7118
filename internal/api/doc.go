// Package api hosts the HTTP server, middleware, and handlers that trigger
// pipeline runs. Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/scrape with {"job_id":...} or {"url":...}.
//   - POST /v1/process with {"job_id":...} or {"input_path":...}.
//
// Invocations run synchronously; the response body is the run Result and the
// HTTP status mirrors its status code.
package api
