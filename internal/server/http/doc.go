// Package http exposes the account lifecycle over a JSON HTTP API built on
// fiber, plus the health and metrics endpoints.
//
// Routes
//
//	GET  /                      welcome document
//	GET  /health                storage ping, always 200
//	GET  /metrics               Prometheus exposition (when metrics are enabled)
//	POST /auth/signup           201 with the public user view
//	POST /auth/verify-code
//	POST /auth/resend-code
//	POST /auth/login            access token in the body, refresh token in a cookie
//	POST /auth/refresh          reads and rotates the refresh cookie
//	POST /auth/logout           clears the refresh cookie
//	POST /auth/forgot-password
//	POST /auth/reset-password
//	GET  /auth/me               requires "Authorization: Bearer <access token>"
//
// Request bodies are validated before the service is called; failures are
// answered with 422 and {"detail": [{field, tag, message}]}. Service errors
// become {"detail": "<message>"} with the status chosen by errorStatus.
package http
