// Package worker implements the abstract pacing loop shared by every
// codec-specific worker (C8) plus the concrete H.264/H.265/AAC/TS/MKV
// workers that plug into it (C9). A Worker owns exactly one goroutine: the
// pace loop. Stopping a worker cancels that goroutine and waits for it to
// exit, mirroring the teacher's supervisor goroutine-plus-context shutdown
// style (internal/supervisor.Run) but scoped to a single session instead of
// a process tree.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// catchUpBurst bounds how many access units a stalled worker may emit
// back-to-back before resynchronizing to wall clock — the "five-interval
// catch-up cap" from spec §4.5, expressed as a token-bucket burst.
const catchUpBurst = 5

// minSleep is the pace interval used when a codec reports a non-positive
// DataInterval. Positive intervals, however small, are used as reported.
const minSleep = 500 * time.Microsecond

// Session is the subset of the external RTSP session handle the pace loop
// itself needs: liveness checks. internal/engine.Session satisfies this.
type Session interface {
	IsPlaying() bool
	TransportAlive() bool
}

// AccessUnit is the unit a codec worker hands to the session: a byte slice,
// its synthesized RTP timestamp, the media type, and whether it is a
// keyframe. Mirrors spec §6's access_unit fields.
type AccessUnit struct {
	Data                  []byte
	PresentationTimestamp uint32
	MediaType             string
	IsKeyframe            bool
}

// PushSession is the full session handle codec workers push access units
// through: liveness plus the push operations. internal/engine.Session
// satisfies this (Go interfaces are structural, so no import cycle is
// needed for engine to provide one).
type PushSession interface {
	Session
	PushFrame(au AccessUnit) bool
	PushFrameTrack(au AccessUnit, track int) bool
}

// Hooks is the set of codec-specific behaviors the pace loop drives. Each
// concrete worker (H264, H265, AAC, TS, MKV) implements this once.
type Hooks interface {
	// InitializeReader acquires the mapped file, constructs the reader, and
	// precomputes the pace interval and RTP-timestamp increment. Returning
	// an error aborts Start before any goroutine is spawned.
	InitializeReader() error
	// SendNext reads one access unit and pushes it to the session. Returns
	// false on EOF or a push failure (the two are handled identically: the
	// pace loop treats a push failure as EOF-like per spec §4.5's failure
	// semantics, and relies on the outer liveness check to terminate a
	// genuinely dead session).
	SendNext() bool
	// DataInterval is the steady wall-clock interval between emissions.
	DataInterval() time.Duration
	// ResetReader rewinds the reader to the beginning of the stream.
	ResetReader()
	// CleanupReader drops the reader.
	CleanupReader()
	// ReleaseFile returns the mapped handle to the cache (C1.release).
	ReleaseFile()
}

// EOFHandler is an optional hook: codecs that need to override the default
// reset-and-loop behavior (e.g. to play once and stop) implement it.
type EOFHandler interface {
	HandleEOF(w *Worker)
}

// SeekableHooks is an optional hook implemented by codecs whose reader
// supports seeking and frame-rate overrides (H.264, H.265). Spec §5's
// concurrency model reserves the reader cursor exclusively to the owning
// pacing goroutine, so these calls are never invoked directly by the
// registry thread — Worker marshals them onto the pace-loop goroutine via
// a command queue (see enqueue/paceLoop) instead of taking a lock.
type SeekableHooks interface {
	SeekToFrame(frame int) bool
	SeekToTime(seconds float64) bool
	SetFrameRate(fps float64)
	ResetToStart()
}

const commandQueueDepth = 8

// commandTimeout bounds how long a seek/reset/frame-rate call waits for the
// pace-loop goroutine to service it, in case the loop is blocked on the
// limiter's Wait for up to one data interval.
const commandTimeout = 2 * time.Second

// Worker runs one codec's pace loop against one session.
type Worker struct {
	session Session
	hooks   Hooks
	label   string

	limiter *rate.Limiter

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	done     chan struct{}
	commands chan func()

	sentCount uint64
}

// New constructs a worker for session, driven by hooks. label is used only
// for log lines (typically the session ID plus codec name).
func New(session Session, hooks Hooks, label string) *Worker {
	return &Worker{session: session, hooks: hooks, label: label}
}

// Start initializes the reader and spawns the pace-loop goroutine. On
// failure the caller is responsible for releasing any resources the
// (failed) InitializeReader call may not have acquired.
func (w *Worker) Start() error {
	if err := w.hooks.InitializeReader(); err != nil {
		return err
	}
	interval := w.hooks.DataInterval()
	if interval <= 0 {
		interval = minSleep
	}

	w.mu.Lock()
	w.limiter = rate.NewLimiter(rate.Every(interval), catchUpBurst)
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.commands = make(chan func(), commandQueueDepth)
	w.running = true
	w.mu.Unlock()

	go w.paceLoop()
	return nil
}

// Stop signals the pace loop to exit and waits for it to do so. Safe to
// call more than once or on a worker that was never started.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	stop, done := w.stop, w.done
	w.mu.Unlock()

	select {
	case <-stop:
	default:
		close(stop)
	}
	<-done
}

// IsRunning reports whether the pace-loop goroutine is still active.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// SentCount returns the number of access units successfully emitted so far.
func (w *Worker) SentCount() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sentCount
}

func (w *Worker) paceLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	defer func() {
		w.hooks.CleanupReader()
		w.hooks.ReleaseFile()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.done)
	}()

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		w.drainCommands()

		if !w.session.IsPlaying() || !w.session.TransportAlive() {
			log.Printf("worker[%s]: session no longer active, exiting pace loop", w.label)
			return
		}

		if err := w.limiter.Wait(ctx); err != nil {
			return
		}

		if w.hooks.SendNext() {
			w.mu.Lock()
			w.sentCount++
			w.mu.Unlock()
			continue
		}
		w.handleEOF()
	}
}

// drainCommands runs any seek/reset/frame-rate calls queued by other
// goroutines, on the pace-loop goroutine itself, before the next tick.
func (w *Worker) drainCommands() {
	for {
		select {
		case cmd := <-w.commands:
			cmd()
		default:
			return
		}
	}
}

// enqueue schedules fn to run on the pace-loop goroutine and blocks until
// it has, or commandTimeout elapses, or the worker is not running.
func (w *Worker) enqueue(fn func()) bool {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return false
	}
	commands := w.commands
	w.mu.Unlock()

	done := make(chan struct{})
	select {
	case commands <- func() { fn(); close(done) }:
	case <-time.After(commandTimeout):
		return false
	}
	select {
	case <-done:
		return true
	case <-time.After(commandTimeout):
		return false
	}
}

// SeekToFrame delegates to the hooks' SeekableHooks implementation, if any,
// running on the pace-loop goroutine. Returns false if the hooks don't
// support seeking or the worker isn't running.
func (w *Worker) SeekToFrame(frame int) bool {
	sh, ok := w.hooks.(SeekableHooks)
	if !ok {
		return false
	}
	var result bool
	ran := w.enqueue(func() { result = sh.SeekToFrame(frame) })
	return ran && result
}

// SeekToTime delegates to the hooks' SeekableHooks implementation, if any.
func (w *Worker) SeekToTime(seconds float64) bool {
	sh, ok := w.hooks.(SeekableHooks)
	if !ok {
		return false
	}
	var result bool
	ran := w.enqueue(func() { result = sh.SeekToTime(seconds) })
	return ran && result
}

// SetFrameRate overrides the reader's frame-rate-derived pacing, if the
// hooks support it.
func (w *Worker) SetFrameRate(fps float64) {
	sh, ok := w.hooks.(SeekableHooks)
	if !ok {
		return
	}
	w.enqueue(func() { sh.SetFrameRate(fps) })
}

// ResetToStart rewinds the reader to the beginning of the stream, if the
// hooks support it.
func (w *Worker) ResetToStart() {
	sh, ok := w.hooks.(SeekableHooks)
	if !ok {
		return
	}
	w.enqueue(func() { sh.ResetToStart() })
}

func (w *Worker) handleEOF() {
	if eh, ok := w.hooks.(EOFHandler); ok {
		eh.HandleEOF(w)
		return
	}
	w.hooks.ResetReader()
	w.mu.Lock()
	w.sentCount = 0
	w.mu.Unlock()
}
