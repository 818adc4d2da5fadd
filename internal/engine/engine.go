// Package engine wires C1 through C14 into one facade: a mapped-file cache,
// a media catalog, a session registry, and the RTSP lifecycle bridge, with
// one constructor per codec's worker.Hooks so the rtspbridge.StartFunc can
// build the right worker for any catalog entry.
package engine

import (
	"fmt"

	"github.com/snapetech/rtspvod/internal/mapcache"
	"github.com/snapetech/rtspvod/internal/mediacatalog"
	"github.com/snapetech/rtspvod/internal/registry"
	"github.com/snapetech/rtspvod/internal/rtspbridge"
	"github.com/snapetech/rtspvod/internal/worker"
)

// AccessUnit re-exports worker.AccessUnit so callers outside this module
// tree only need to import internal/engine.
type AccessUnit = worker.AccessUnit

// Session is the external RTSP session handle the engine requires (spec
// §6.1): liveness, push, identity and stream-path lookup.
type Session interface {
	SessionID() string
	StreamPath() string
	IsPlaying() bool
	TransportAlive() bool
	PushFrame(au AccessUnit) bool
	PushFrameTrack(au AccessUnit, track int) bool
}

// EventLogger is optionally supplied to record session lifecycle events
// (internal/sessionlog implements it).
type EventLogger = rtspbridge.EventLogger

// Engine is the top-level facade a real RTSP server (or the demo binaries)
// drives.
type Engine struct {
	Cache    *mapcache.Cache
	Catalog  *mediacatalog.Catalog
	Registry *registry.Registry
	Bridge   *rtspbridge.Bridge

	sessions *sessionTable
}

// New constructs an Engine, scanning mediaDir into the catalog immediately.
// logger may be nil.
func New(mediaDir string, logger EventLogger) (*Engine, error) {
	cache := mapcache.New()
	catalog := mediacatalog.New()
	if err := catalog.Scan(mediaDir, cache); err != nil {
		return nil, fmt.Errorf("engine: scan %s: %w", mediaDir, err)
	}
	reg := registry.New()

	e := &Engine{Cache: cache, Catalog: catalog, Registry: reg, sessions: newSessionTable()}
	e.Bridge = rtspbridge.New(catalog, reg, e.startWorker, logger)
	return e, nil
}

// startWorker builds the codec-appropriate worker.Hooks for entry and
// starts it under sessionID in the registry. Supplied to rtspbridge as the
// StartFunc; the session itself is recovered via lookupSession from the
// table that RegisterSession/UnregisterSession maintain, which the RTSP
// server integration must keep current. Returns false for a session that
// was never registered.
func (e *Engine) startWorker(sessionID string, entry mediacatalog.Entry) bool {
	session, ok := e.lookupSession(sessionID)
	if !ok {
		return false
	}
	return e.StartSession(sessionID, session, entry)
}

// StartSession builds and starts the codec-appropriate worker for entry,
// pushing into session, and installs it in the registry under sessionID.
// Exposed directly so callers that already hold the Session (rather than
// routing through the bridge's sessionID-only StartFunc) can start a
// session without a lookup round-trip.
func (e *Engine) StartSession(sessionID string, session Session, entry mediacatalog.Entry) bool {
	w := e.buildWorker(session, entry)
	if w == nil {
		return false
	}
	return e.Registry.Start(sessionID, w)
}

func (e *Engine) buildWorker(session Session, entry mediacatalog.Entry) *worker.Worker {
	switch entry.Codec {
	case mediacatalog.H264:
		hooks := worker.NewH264Hooks(e.Cache, entry.FilePath, entry.Info.FrameRate, session)
		return worker.New(session, hooks, entry.StreamPath+"/h264")
	case mediacatalog.H265:
		hooks := worker.NewH265Hooks(e.Cache, entry.FilePath, entry.Info.FrameRate, session)
		return worker.New(session, hooks, entry.StreamPath+"/h265")
	case mediacatalog.AAC:
		hooks := worker.NewAACHooks(e.Cache, entry.FilePath, session)
		return worker.New(session, hooks, entry.StreamPath+"/aac")
	case mediacatalog.MP2T:
		hooks := worker.NewTSHooks(e.Cache, entry.FilePath, int(entry.Info.Bitrate), session)
		return worker.New(session, hooks, entry.StreamPath+"/ts")
	case mediacatalog.MKV:
		hooks := worker.NewMKVHooks(e.Cache, entry.FilePath, entry.WantVideo, entry.TrackIndex, entry.Info.FrameRate, session)
		suffix := "/mkv-video"
		if !entry.WantVideo {
			suffix = "/mkv-audio"
		}
		return worker.New(session, hooks, entry.StreamPath+suffix)
	default:
		return nil
	}
}
