// Package authapi mounts the session manager behind an HTTP surface for UI
// consumers: a state snapshot endpoint plus one endpoint per credential and
// entitlement operation. Navigation signals are surfaced as a redirect
// field in responses; performing the navigation is the client's job.
package authapi
