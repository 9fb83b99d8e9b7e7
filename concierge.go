package concierge

// Version is the release identifier reported by the CLI, /info and the
// MCP server. Keep it aligned with the embedded API document.
var Version = "0.3.0"
