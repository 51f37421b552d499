// Package websocket implements the live selection channel served on /ws.
//
// A browser connects, receives a connection message and then sends
// commands:
//
//	{"type":"select","country":"Germany","request_id":"7"}
//	{"type":"countries"}
//	{"type":"heartbeat"}
//
// Selections are answered with a "chart" message carrying the same
// WaterfallChart the HTTP API returns, or an "error" message whose code is
// the application error type. When the dataset is reloaded the hub
// broadcasts "dataset_reloaded" to every client.
//
// The Hub owns client registration and is the only place a client's send
// queue is closed. Clients that cannot keep up with broadcasts are
// disconnected.
package websocket
