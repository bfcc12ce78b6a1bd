// Package api hosts the HTTP server, middleware, and JSON handlers. Routes:
//   - GET /health for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /extract-pdf and /extract-file for document text.
//   - POST /extract-job-text and /extract_with_apify for job postings.
//
// Every POST route takes a JSON body of the form {"url": "..."}.
package api
