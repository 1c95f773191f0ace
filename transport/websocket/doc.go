// Package websocket provides the single-process visualization sink: a
// hub that fans out SessionConnected, AgentMoved, and AgentDied
// observations from exactly one world to every connected viewer.
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a dedicated
// goroutine pair (read/write pumps) for cleanup and backpressure.
//
// Message protocol:
//
// Outgoing messages are JSON-encoded Message values carrying one of three
// event kinds: "connected", "moved", "died". There is no client->server
// protocol; the connection exists purely to observe.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	registry.OnSessionConnected(func(rec *world.SessionRecord, username string) {
//		hub.NotifySessionConnected(rec.SID, rec.Identifier, username)
//	})
//	http.HandleFunc("/visualize", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r)
//	})
package websocket
