// Package client implements a game client for the dTetris server. It is used
// by the play command and by the end-to-end tests of the server.
//
// The package focuses on:
//   - Sending hello and input frames with increasing sequence numbers
//   - Receiving server frames in order through a single reader goroutine
//   - Integration with the transport and serialization layers
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Endpoint:      "localhost:7777",
//	  TimeoutSecond: 5,
//	}
//
//	c, err := client.NewGameClient(config, tcp.NewTCPClientTransport(), serializer.NewJSONSerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer c.Close()
//
//	_ = c.Hello("multiplayer")
//	match, _ := c.Expect(ctx, common.MsgTMatch) // after a waiting frame if queued
//	_, _ = c.Input(tetris.HardDrop)
//
// Frames are delivered exactly in the order the server wrote them. The
// server never answers an accepted input, only rejected ones produce an
// error frame carrying the input's sequence number.
package client
