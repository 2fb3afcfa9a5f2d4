// Package rpc provides the network layer of the game server. It carries
// framed messages between the players and the server.
//
// The package is organized into several subpackages:
//
//   - common: The Message protocol, server and client configuration and
//     logging.
//
//   - transport: Framed connection abstractions with pluggable
//     implementations (TCP, Unix sockets, WebSocket).
//
//   - serializer: Message serialization with multiple format options
//     (Binary, JSON, GOB).
//
//   - client: A game client used by the play command and the tests.
//
//   - server: The connection acceptor, sessions and the board relay.
package rpc
