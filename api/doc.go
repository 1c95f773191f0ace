// Package api provides the per-world HTTP ConnectionHandler: a listener
// that authenticates request shape and dispatches POST /connect and
// POST /move into a world's SessionRegistry.
//
// Endpoints:
//
//	POST /connect - admit a new session, optionally with a VisualIdentifier
//	POST /move    - step a session's agent by (dx, dy)
//
// Routing rules:
//
//   - Any method other than POST returns a bare HTTP 404.
//   - A POST to any other path returns the uniform
//     {"success":false,"message":"Unknown request"} body.
//   - Malformed bodies, timed-out reads, and any panic reaching the route
//     boundary are converted to {"success":false,"message":"Exception
//     occured during request processing: <msg>"}.
//
// clientId is always the server-observed r.RemoteAddr, never a
// client-supplied value.
//
// Usage:
//
//	registry := world.NewRegistry(grid, requireVSID, maxPerClient, cooldown, reservation)
//	server := api.NewServer(registry)
//	http.ListenAndServe(addr, server)
package api
