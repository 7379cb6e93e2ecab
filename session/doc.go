// Package session manages chat sessions and their runtime counterparts.
//
// It has two halves. Registry keeps the backend's chat sessions paired with
// sessions inside the agent runtime, creating the runtime side lazily and
// idempotently. Service is the user-facing lifecycle API: create, list,
// rename and delete chat sessions with ownership enforced on every read.
package session
