package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/multiworld-game/game/engine"
	"github.com/wricardo/multiworld-game/game/visual"
	"github.com/wricardo/multiworld-game/game/wire"
	"github.com/wricardo/multiworld-game/game/world"
)

const (
	bodyReadTimeout = 2 * time.Second
	maxBodyBytes    = 1 << 16
	maxUsernameLen  = 15
)

// Server is the ConnectionHandler for one world: an HTTP listener that
// routes POST /connect and POST /move into the world's SessionRegistry.
type Server struct {
	registry *world.Registry
	router   *mux.Router
}

// NewServer builds a ConnectionHandler bound to registry.
func NewServer(registry *world.Registry) *Server {
	s := &Server{registry: registry, router: mux.NewRouter()}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/connect", s.withRecover(s.handleConnect)).Methods(http.MethodPost)
	s.router.HandleFunc("/move", s.withRecover(s.handleMove)).Methods(http.MethodPost)

	unmatched := http.HandlerFunc(s.handleUnmatched)
	s.router.NotFoundHandler = unmatched
	s.router.MethodNotAllowedHandler = unmatched
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleUnmatched implements the routing rules that gorilla/mux's own
// plumbing can't express directly: a non-POST method is always a bare 404
// regardless of path, while a POST to an unregistered path gets the
// uniform JSON "Unknown request" body.
func (s *Server) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeError(w, "Unknown request")
}

func (s *Server) withRecover(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("connection handler: recovered from panic: %v", rec)
				writeError(w, fmt.Sprintf("Exception occured during request processing: %v", rec))
			}
		}()
		next(w, r)
	}
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req wire.ConnectRequest
	if err := readJSONBody(r, &req); err != nil {
		writeError(w, fmt.Sprintf("Exception occured during request processing: %v", err))
		return
	}

	connReq := world.ConnectRequest{
		ClientID: r.RemoteAddr,
		Username: sanitizeUsername(req.Username),
	}
	if req.VSID != nil {
		connReq.HasVSID = true
		connReq.VSIDText = visual.Sanitize(req.VSID.IdentifierStr)
		connReq.VSIDColor = visual.Color(req.VSID.Color)
	}

	sid, err := s.registry.Connect(connReq)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, wire.ConnectResponse{Success: true, SID: sid})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req wire.MoveRequest
	if err := readJSONBody(r, &req); err != nil {
		writeError(w, fmt.Sprintf("Exception occured during request processing: %v", err))
		return
	}

	result, err := s.registry.Move(r.Context(), req.SID, engine.Vector{X: req.DX, Y: req.DY})
	if err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, wire.MoveResponse{
		Success:    true,
		Moved:      result.Moved,
		Alive:      result.Alive,
		Discovered: result.Discovered,
	})
}

// readJSONBody reads r.Body under bodyReadTimeout and decodes it as JSON
// into v. A non-nil error here always carries a human-readable message
// suitable for embedding in the uniform exception shape.
func readJSONBody(r *http.Request, v interface{}) error {
	type readResult struct {
		data []byte
		err  error
	}

	done := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		done <- readResult{data, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		return json.Unmarshal(res.data, v)
	case <-time.After(bodyReadTimeout):
		return fmt.Errorf("timed out reading request body")
	case <-r.Context().Done():
		return r.Context().Err()
	}
}

// sanitizeUsername trims, collapses whitespace, strips control characters,
// and truncates to maxUsernameLen visible characters (appending "...").
func sanitizeUsername(s string) string {
	cleaned := visual.Sanitize(s)
	runes := []rune(cleaned)
	if len(runes) <= maxUsernameLen {
		return cleaned
	}
	return string(runes[:12]) + "..."
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, wire.ErrorResponse{Success: false, Message: message})
}
