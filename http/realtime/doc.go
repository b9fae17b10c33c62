/*
Package realtime serves a websocket channel next to the HTTP routes.

Each text frame is a JSON object of the form:

	{"event": "name", "data": ...}

The EventHandler registered under "name" receives the raw data along with a *route.Context
carrying the connection's session and upgrade request.
A non-nil reply is sent back under the same event.
Unknown events and failing handlers are answered with an "error" event.
*/
package realtime
