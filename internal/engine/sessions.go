package engine

import "sync"

// sessionTable tracks live Session handles by ID so the bridge's
// sessionID-only callbacks (spec §6.2 fires on_session_start_play with the
// session handle directly, but on_session_stop_play/on_session_destroyed
// with only the ID) can always recover the full handle when needed.
type sessionTable struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func newSessionTable() *sessionTable {
	return &sessionTable{sessions: make(map[string]Session)}
}

// RegisterSession records session under its own SessionID(). A real RTSP
// server integration calls this from on_session_created; cmd/rtspvod-serve
// does not call it, since it constructs no sessions of its own.
func (e *Engine) RegisterSession(session Session) {
	e.sessions.mu.Lock()
	defer e.sessions.mu.Unlock()
	e.sessions.sessions[session.SessionID()] = session
}

// UnregisterSession drops the session. Called from on_session_destroyed.
func (e *Engine) UnregisterSession(sessionID string) {
	e.sessions.mu.Lock()
	defer e.sessions.mu.Unlock()
	delete(e.sessions.sessions, sessionID)
}

func (e *Engine) lookupSession(sessionID string) (Session, bool) {
	e.sessions.mu.Lock()
	defer e.sessions.mu.Unlock()
	s, ok := e.sessions.sessions[sessionID]
	return s, ok
}
