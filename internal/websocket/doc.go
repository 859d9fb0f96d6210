// Package websocket serves interactive chart sessions. Each connection owns one
// session view state; client events are applied in arrival order and every
// event is answered with the complete view, chart included.
package websocket
