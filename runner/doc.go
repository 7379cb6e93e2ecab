// Package runner implements the message/event aggregation and streaming
// pipeline: it drives an agent run, converts the runtime's heterogeneous raw
// events into canonical AgentEvents, assembles them into a durable ordered
// assistant turn and simultaneously streams them to the caller as framed JSON,
// guaranteeing eventual persistence even on partial failure.
//
// The pipeline for one request is strictly cooperative and single-threaded:
// normalize -> aggregate -> dispatch run in event-arrival order, so dispatch
// order equals aggregation order equals sequence-number order. Concurrent
// requests run independent pipelines; the only shared state is the session
// registry.
package runner
