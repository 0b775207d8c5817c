// Package logstream serves the apswitch console log over a WebSocket.
//
// A client connecting to ws://<addr>/log first receives every line already
// in the log, then each new line as it is appended, one text message per
// line. An empty message means the log was cleared.
//
//	websocat ws://127.0.0.1:8765/log
package logstream
