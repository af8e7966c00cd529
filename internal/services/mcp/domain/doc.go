// Package domain translates MCP tool calls into table service operations.
//
// Each tool has an input type, a result type, a *mcp.Tool definition and a
// handler constructor. Handlers take a TableService so tests can swap the
// storage behind it.
package domain
