// Copyright (c) ultra-mcp Authors.
// Licensed under the MIT License.

/*
Package main provides the ultra-mcp command-line entry point.

cmd/ultramcp is the operator-facing surface for the gateway engine
described in the rest of this module: it never implements MCP transport
framing or tool registration itself (spec.md §1 keeps those out of
scope), but it does give a human a way to configure credentials, check
readiness, inspect pricing, and inspect the request/conversation tables
the engine writes to.

Subcommands:

  - config    — interactive per-provider credential setup
  - doctor    — configuration checklist, non-zero exit iff nothing configured
  - install   — writes the MCP server entry into a host IDE's config file
  - pricing   — show/calculate/refresh/clear/info against the pricing cache
  - db:show   — print recent request-tracker rows
  - db:stats  — aggregate request-tracker counters
  - db:view   — print conversation sessions and their message/file counts
  - dashboard — stub; the HTTP dashboard is out of this engine's scope
*/
package main
