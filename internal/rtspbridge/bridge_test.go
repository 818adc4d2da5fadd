package rtspbridge

import (
	"testing"

	"github.com/snapetech/rtspvod/internal/mediacatalog"
)

type fakeSession struct {
	id   string
	path string
}

func (f fakeSession) SessionID() string  { return f.id }
func (f fakeSession) StreamPath() string { return f.path }

type fakeRegistry struct {
	stopped []string
	stopAll bool
}

func (r *fakeRegistry) Stop(sessionID string) bool {
	r.stopped = append(r.stopped, sessionID)
	return true
}

func (r *fakeRegistry) StopAll() { r.stopAll = true }

type fakeLogger struct {
	events []string
}

func (l *fakeLogger) LogEvent(sessionID, event, streamPath string) {
	l.events = append(l.events, event)
}

func TestOnSessionStartPlayUnknownStreamPath(t *testing.T) {
	cat := mediacatalog.New()
	reg := &fakeRegistry{}
	started := false
	b := New(cat, reg, func(string, mediacatalog.Entry) bool { started = true; return true }, nil)

	ok := b.OnSessionStartPlay(fakeSession{id: "s1", path: "/missing.aac"})
	if ok {
		t.Fatal("expected false for unknown stream path")
	}
	if started {
		t.Fatal("start should not have been called for unknown stream path")
	}
}

func TestOnSessionStartPlayDelegatesToStartFunc(t *testing.T) {
	cat := mediacatalog.New()
	entry := mediacatalog.Entry{StreamPath: "/a.aac", Codec: mediacatalog.AAC}
	seedCatalog(cat, entry)

	reg := &fakeRegistry{}
	logger := &fakeLogger{}
	var gotID string
	var gotEntry mediacatalog.Entry
	b := New(cat, reg, func(id string, e mediacatalog.Entry) bool {
		gotID, gotEntry = id, e
		return true
	}, logger)

	if !b.OnSessionStartPlay(fakeSession{id: "s1", path: "/a.aac"}) {
		t.Fatal("expected start to succeed")
	}
	if gotID != "s1" || gotEntry.StreamPath != "/a.aac" {
		t.Fatalf("start func received wrong args: id=%s entry=%+v", gotID, gotEntry)
	}
	if len(logger.events) != 1 || logger.events[0] != "start_play" {
		t.Fatalf("expected one start_play event, got %v", logger.events)
	}
}

func TestOnSessionDestroyedStopsAndLogs(t *testing.T) {
	cat := mediacatalog.New()
	reg := &fakeRegistry{}
	logger := &fakeLogger{}
	b := New(cat, reg, nil, logger)

	b.OnSessionDestroyed("s1")
	if len(reg.stopped) != 1 || reg.stopped[0] != "s1" {
		t.Fatalf("expected Stop(s1), got %v", reg.stopped)
	}
	if len(logger.events) != 1 || logger.events[0] != "destroyed" {
		t.Fatalf("expected destroyed event, got %v", logger.events)
	}
}

// seedCatalog injects an entry for tests without exercising Scan.
func seedCatalog(c *mediacatalog.Catalog, e mediacatalog.Entry) {
	c.Add(e)
}
