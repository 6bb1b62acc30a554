// Package a2a defines the wire-level data model of the Agent-to-Agent
// protocol: messages, tasks, events, agent cards, push-notification
// configuration, and the fixed JSON-RPC error taxonomy. It has no
// dependency on any transport or on the request-handling engine in
// package server.
package a2a

import "github.com/google/uuid"

// NewTaskID generates a fresh, globally unique task identifier.
func NewTaskID() string {
	return uuid.NewString()
}

// NewContextID generates a fresh, globally unique context identifier.
func NewContextID() string {
	return uuid.NewString()
}

// NewMessageID generates a fresh, globally unique message identifier.
func NewMessageID() string {
	return uuid.NewString()
}
