// Package websocket pushes live game updates to browsers.
//
// A central Hub keeps the connected clients of every session and
// implements service.Notifier, so engine observers can broadcast without
// knowing about connections. Clients connect with /ws?session=<id>.
//
// Outgoing messages are one JSON document per frame:
//
//	{"session_id":"ab12","event":"state_update","game_state":{...}}
//	{"session_id":"ab12","event":"score_update","data":{"score":20,"high_score":90}}
//	{"session_id":"ab12","event":"game_over","data":{"score":20,"high_score":90,"victory":false}}
//
// Incoming messages drive the session through the InputHandler:
//
//	{"action":"key","code":"ArrowUp"}
//	{"action":"direction","direction":"left"}
//	{"action":"start"} {"action":"pause"} {"action":"restart"}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	hub.SetInputHandler(websocket.NewGameInputHandler(gameService))
//
// Broadcasts are queued and never block; a client whose buffer fills up
// is disconnected.
package websocket
