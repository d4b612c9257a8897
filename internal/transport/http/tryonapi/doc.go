// Package tryonapi is the HTTP client for the remote try-on service.
//
// Supported operations:
//   - Submit: multipart POST /api/v1/tryon with the verification token header.
//   - CheckStatus: GET /api/v1/ratelimit.
//   - Audit: JSON POST /api/v1/tryon/audit.
//
// Every operation makes exactly one request and never retries; the remote
// transformation may consume quota or the token, so retrying is the caller's
// decision. Non-2xx responses become typed errors whose Detail is the
// server's message, or "HTTP <status>: <statusText>" when none is readable.
package tryonapi
