// Package wire defines the JSON request and response shapes a
// ConnectionHandler exchanges with clients over /connect and /move, kept
// separate from the engine/world types so the wire contract can be
// reasoned about (and round-trip tested) independently of them.
package wire
