// Package http implements the HTTP request handlers for the flow graph
// service. It is a thin layer between transport and the service packages:
// handlers parse and validate requests, call the flow service, and translate
// service errors into RFC 7807 problem responses.
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → FlowService
//	                                             ↓
//	HTTP Response ← render.JSON ← Handler ←──────┘
//
// Handlers never touch record sets directly; every read goes through the
// service so that requests always observe one consistent snapshot.
package http
