// Package llmtypes provides the message, role, and error types shared by
// every package in the gateway. It has zero dependencies on the rest of
// this module so that providers, tracker, pricing, and conversation can
// all import it without cycles.
package llmtypes
