// Package common provides the data structures shared by the dTetris server,
// its client and the transport layer.
//
// The package focuses on:
//   - Message protocol definition of the board relay
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger
//   - Port validation for operator input
//
// Key Components:
//
//   - Message: the payload of every frame. A flat structure whose used fields
//     depend on MsgType, with factory functions for each message. Client to
//     server: hello (mode request) and input (one action). Server to client:
//     waiting, match, snapshot, snapshot-partial, terminal and error.
//
//   - MessageType: enumeration of all message types, serialized as a string
//     in JSON.
//
//   - ServerConfig: listening endpoint, worker count, session limits and
//     observability settings of a server. ClientConfig: endpoint and timeouts
//     of a client.
//
//   - ResolvePort: turns the operator's port input into a valid port, falling
//     back to DefaultPort (7777) with a warning instead of failing.
//
//   - Logger: custom ILogger factory for github.com/lni/dragonboat/v4/logger
//     writing "LEVEL | package | message" lines to stdout.
package common
