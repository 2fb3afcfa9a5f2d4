// Package tetris is the rules engine behind every player board. The server
// core treats it as an external collaborator: a Board is created per player,
// mutated only through Apply by the input path of the session that owns it,
// and copied into an immutable Snapshot whenever its state has to cross to
// another session.
//
// Rules:
//   - 10x20 grid, seven tetrominoes drawn from a seeded 7-bag
//   - actions: move-left, move-right, rotate-cw, rotate-ccw, soft-drop, hard-drop
//   - rotations try a one-column kick to either side before giving up
//   - a soft drop that cannot move locks the piece, a hard drop always locks
//   - line clears score 100/300/500/800, soft drops +1 per row, hard drops +2 per row
//   - the game is over once a freshly spawned piece collides
//
// A blocked move is still a valid input: it changes nothing on the grid but
// bumps the board revision, so every accepted input yields exactly one new
// revision. There is no gravity timer, time only advances through inputs.
//
// Boards are not safe for concurrent use. Snapshots are values and may be
// shared freely.
package tetris
