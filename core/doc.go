// Package core provides the foundational domain types and interfaces of the
// paisa conversation backend. It defines the core abstractions for:
//
//   - ConversationTurn (one durable unit of dialogue: a human prompt or a
//     fully aggregated assistant response)
//   - AgentEvent (one canonical, immutable increment of an assistant turn)
//   - RawEvent (the agent runtime's native event shape before normalization)
//   - Pluggable stores for turns, chat sessions and artifacts
//   - The Runtime boundary to the external agent-orchestration engine
//
// The package intentionally keeps implementation concerns (persistence
// backends, the streaming pipeline, concrete runtimes) out of scope, exposing
// small interfaces so backends can be swapped without touching calling code.
package core
