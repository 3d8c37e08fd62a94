// Package handler implements the HTTP handlers of the keepalive service:
// the ping trigger, which loads the project list, pings every project and
// reports aggregate health, and a logic-free liveness probe.
package handler
