// Package pg provides PostgreSQL connection plumbing for the profile and
// billing stores: pool setup with retry, goose-driven schema migrations,
// and a health check for readiness endpoints.
package pg
