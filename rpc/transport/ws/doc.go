// Package ws implements a WebSocket transport for dTetris using
// github.com/gorilla/websocket, so browser clients can play against native
// ones.
//
// Clients upgrade on GET /play. Every frame is one binary message whose first
// eight bytes hold the sequence number (big endian), followed by the payload.
// Text messages are ignored. The frame size limit is enforced through the
// websocket read limit.
//
// Hijacked connections live outside the HTTP server: closing the transport
// stops accepting upgrades but leaves running sessions alone, they are closed
// by the game server like any other connection.
package ws
