package worker

import (
	"fmt"
	"time"

	"github.com/snapetech/rtspvod/internal/h264"
	"github.com/snapetech/rtspvod/internal/mapcache"
)

// H264Hooks drives an H.264 Annex-B worker: one NAL unit per access unit,
// paced at 1/fps, RTP timestamps on the 90kHz clock.
type H264Hooks struct {
	Cache     *mapcache.Cache
	Path      string
	FrameRate float64 // 0 uses h264.DefaultFrameRate

	file    *mapcache.MappedFile
	reader  *h264.Reader
	session PushSession
	counter uint32
}

// NewH264Hooks constructs hooks that push onto session.
func NewH264Hooks(cache *mapcache.Cache, path string, frameRate float64, session PushSession) *H264Hooks {
	return &H264Hooks{Cache: cache, Path: path, FrameRate: frameRate, session: session}
}

func (h *H264Hooks) InitializeReader() error {
	file, err := h.Cache.Get(h.Path)
	if err != nil {
		return fmt.Errorf("h264 worker: acquire %s: %w", h.Path, err)
	}
	h.file = file
	r := h264.NewReader(file)
	if h.FrameRate > 0 {
		r.SetFrameRate(h.FrameRate)
	}
	h.reader = r
	h.counter = 0
	return nil
}

func (h *H264Hooks) DataInterval() time.Duration {
	fps := h.reader.FrameRate()
	if fps <= 0 {
		fps = h264.DefaultFrameRate
	}
	return time.Duration(float64(time.Second) / fps)
}

func (h *H264Hooks) SendNext() bool {
	au, ok := h.reader.ReadNext()
	if !ok {
		return false
	}
	fps := h.reader.FrameRate()
	if fps <= 0 {
		fps = h264.DefaultFrameRate
	}
	ts := h.counter * uint32(90000/fps)
	sent := h.session.PushFrame(AccessUnit{
		Data:                  au.Data,
		PresentationTimestamp: ts,
		MediaType:             "H264",
		IsKeyframe:            au.IsKeyframe,
	})
	if !sent {
		return false
	}
	h.counter++
	return true
}

func (h *H264Hooks) ResetReader() {
	h.reader.Reset()
}

func (h *H264Hooks) CleanupReader() {
	h.reader = nil
}

func (h *H264Hooks) ReleaseFile() {
	if h.file != nil {
		h.Cache.Release(h.Path)
		h.file = nil
	}
}

// SeekToFrame, SeekToTime, SetFrameRate and ResetToStart implement
// worker.SeekableHooks; they only ever run on the pace-loop goroutine
// (see Worker.enqueue), so no locking is needed here.

func (h *H264Hooks) SeekToFrame(frame int) bool {
	if !h.reader.SeekToFrame(frame) {
		return false
	}
	h.counter = uint32(frame)
	return true
}

func (h *H264Hooks) SeekToTime(seconds float64) bool {
	if !h.reader.SeekToTime(seconds) {
		return false
	}
	return true
}

func (h *H264Hooks) SetFrameRate(fps float64) {
	h.reader.SetFrameRate(fps)
}

func (h *H264Hooks) ResetToStart() {
	h.ResetReader()
}
