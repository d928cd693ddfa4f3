// Package redis provides Redis connection plumbing for the Redis-backed
// shadow-copy store: client setup with retry and a readiness health check.
package redis
