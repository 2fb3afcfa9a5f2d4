// Package cmd implements the command-line interface of dTetris. It provides
// a command to run the game server and a scripted client to play against it.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the game server
//   - play: A scripted client that joins a game and logs what it receives
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dtetris -help for a list of all commands.
package cmd
