// Package rtspbridge translates the five stateful RTSP server lifecycle
// callbacks (C12, spec §6.2) one-to-one into registry calls. Connect,
// setup, teardown and pause callbacks are observational and carry no state
// transition in the engine — they're accepted here only so a real RTSP
// server has somewhere to route them; they are not logged to the session
// audit trail.
package rtspbridge

import (
	"log"

	"github.com/snapetech/rtspvod/internal/mediacatalog"
)

// Session is the subset of the external RTSP session handle the bridge
// needs to read back for dispatch.
type Session interface {
	SessionID() string
	StreamPath() string
}

// EventLogger optionally records session lifecycle events for later
// operator review (internal/sessionlog implements this); nil disables
// logging.
type EventLogger interface {
	LogEvent(sessionID, event, streamPath string)
}

// Starter is the subset of *registry.Registry the bridge drives. Declared
// locally to avoid a dependency on the concrete worker construction logic,
// which differs per codec and is the caller's (internal/engine's) job.
type Starter interface {
	Stop(sessionID string) bool
	StopAll()
}

// StartFunc builds and starts the codec-appropriate worker for entry and
// installs it in the registry under sessionID. internal/engine supplies
// this, since only it knows how to construct each codec's worker.Hooks.
type StartFunc func(sessionID string, entry mediacatalog.Entry) bool

// Bridge adapts RTSP lifecycle callbacks to registry.Registry calls.
type Bridge struct {
	catalog  *mediacatalog.Catalog
	registry Starter
	start    StartFunc
	logger   EventLogger
}

// New constructs a bridge. logger may be nil.
func New(catalog *mediacatalog.Catalog, registry Starter, start StartFunc, logger EventLogger) *Bridge {
	return &Bridge{catalog: catalog, registry: registry, start: start, logger: logger}
}

// OnSessionCreated is observational.
func (b *Bridge) OnSessionCreated(session Session) {
	b.log(session.SessionID(), "created", session.StreamPath())
}

// OnSessionDestroyed stops any running worker for the session.
func (b *Bridge) OnSessionDestroyed(sessionID string) {
	b.registry.Stop(sessionID)
	b.log(sessionID, "destroyed", "")
}

// OnSessionStartPlay looks up the session's stream path in the catalog and
// starts the codec-appropriate worker via start. Returns false if the
// stream path is unknown or the worker failed to start.
func (b *Bridge) OnSessionStartPlay(session Session) bool {
	entry, ok := b.catalog.Lookup(session.StreamPath())
	if !ok {
		log.Printf("rtspbridge: start_play session=%s: unknown stream_path=%s", session.SessionID(), session.StreamPath())
		return false
	}
	ok = b.start(session.SessionID(), entry)
	b.log(session.SessionID(), "start_play", session.StreamPath())
	return ok
}

// OnSessionStopPlay stops the session's worker.
func (b *Bridge) OnSessionStopPlay(sessionID string) {
	b.registry.Stop(sessionID)
	b.log(sessionID, "stop_play", "")
}

// OnPlayReceived, OnPauseReceived, OnTeardownReceived, OnClientConnected,
// OnClientDisconnected, OnStreamRequested and OnSetupReceived are
// informational per spec §6.2: they carry no registry-visible state
// transition. They're kept as named no-ops (rather than omitted) so a real
// RTSP server has an explicit, documented place to route every callback in
// its surface.
func (b *Bridge) OnPlayReceived(sessionID string)              {}
func (b *Bridge) OnPauseReceived(sessionID string)             {}
func (b *Bridge) OnTeardownReceived(sessionID string)          {}
func (b *Bridge) OnClientConnected(sessionID string)           {}
func (b *Bridge) OnClientDisconnected(sessionID string)        {}
func (b *Bridge) OnStreamRequested(streamPath string)          {}
func (b *Bridge) OnSetupReceived(sessionID, streamPath string) {}

func (b *Bridge) log(sessionID, event, streamPath string) {
	if b.logger != nil {
		b.logger.LogEvent(sessionID, event, streamPath)
	}
}
