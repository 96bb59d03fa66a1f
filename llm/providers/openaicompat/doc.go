package openaicompat

// This package exists so OpenAI, Azure, Bailian, Ollama, and OpenRouter
// share one HTTP/SSE implementation instead of five near-identical
// copies. A provider-specific package should only need to supply a
// Config and, if its auth differs from "Bearer <key>", a BuildHeaders
// func.
