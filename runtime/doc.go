// Package runtime provides a self-contained agent runtime implementing
// core.Runtime directly over LLM provider APIs.
//
// Engine owns per-session conversational memory and drives a bounded
// generate/execute-tools loop, emitting one raw event per model reply, tool
// call and tool result. Provider implementations live in the runtime/anthropic
// and runtime/openai subpackages; MockProvider serves tests and examples.
package runtime
