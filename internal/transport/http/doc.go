// Package http contains the REST transport layer: chi handlers that accept
// dataset uploads, run the cleaning pipeline, and return statistics and
// chart specifications as JSON. Errors render as RFC 7807 problem details.
package http
