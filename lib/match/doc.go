// Package match implements the matchmaker and the GameMode manager of the
// dTetris server.
//
// A GameMode groups the sessions playing together with one tetris.Board per
// session. Its composition is fixed at creation: a Single game has one
// session and one board, a Multiplayer game has two of each. Board index i
// belongs to session i, and only that session's input path mutates it.
//
// Matchmaking:
//
//	StartSingle(id)   -> new Single GameMode, no queueing
//	Enqueue(id)       -> waiting queue (FIFO by arrival), the two
//	                     longest-waiting sessions form a Multiplayer GameMode,
//	                     the first arrival gets board index 0
//	Remove(id)        -> drops a waiting session or destroys its GameMode and
//	                     reports the survivors, who are not re-queued
//
// A session is in at most one of three places: nowhere, the waiting queue or
// exactly one live GameMode. Joining twice fails with ErrAlreadyAssigned.
//
// Thread Safety:
//
//	The Matchmaker is called from handlers of different sessions running on
//	different reactor workers. Queue and registry changes happen under one
//	mutex. Lookups go to an xsync map and do not take the mutex.
//	GameMode.Apply is called only by the handler of the owning session and
//	returns an immutable snapshot for relaying, never the board itself.
package match
