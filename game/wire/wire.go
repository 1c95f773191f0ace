package wire

import "github.com/wricardo/multiworld-game/game/engine"

// VSID is the wire form of a VisualIdentifier request.
type VSID struct {
	IdentifierStr string `json:"identifierStr"`
	Color         string `json:"color"`
}

// ConnectRequest is the body of POST /connect.
type ConnectRequest struct {
	VSID     *VSID  `json:"vsid"`
	Username string `json:"username"`
}

// ConnectResponse is returned on a successful /connect.
type ConnectResponse struct {
	Success bool   `json:"success"`
	SID     string `json:"sid"`
}

// MoveRequest is the body of POST /move.
type MoveRequest struct {
	SID string `json:"sid"`
	DX  int    `json:"dx"`
	DY  int    `json:"dy"`
}

// MoveResponse is returned on every /move that reaches a live session,
// whether or not the agent moved; other failures use ErrorResponse.
type MoveResponse struct {
	Success    bool         `json:"success"`
	Moved      bool         `json:"moved"`
	Alive      bool         `json:"alive"`
	Discovered *engine.Tile `json:"discovered"`
}

// ErrorResponse is the uniform failure shape for both endpoints and for
// any route or transport-level fault.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
