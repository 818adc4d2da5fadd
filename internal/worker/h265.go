package worker

import (
	"fmt"
	"time"

	"github.com/snapetech/rtspvod/internal/h265"
	"github.com/snapetech/rtspvod/internal/mapcache"
)

// H265Hooks drives an H.265 Annex-B worker, identical in pacing shape to
// H264Hooks since both codecs are paced purely by fps.
type H265Hooks struct {
	Cache     *mapcache.Cache
	Path      string
	FrameRate float64

	file    *mapcache.MappedFile
	reader  *h265.Reader
	session PushSession
	counter uint32
}

func NewH265Hooks(cache *mapcache.Cache, path string, frameRate float64, session PushSession) *H265Hooks {
	return &H265Hooks{Cache: cache, Path: path, FrameRate: frameRate, session: session}
}

func (h *H265Hooks) InitializeReader() error {
	file, err := h.Cache.Get(h.Path)
	if err != nil {
		return fmt.Errorf("h265 worker: acquire %s: %w", h.Path, err)
	}
	h.file = file
	r := h265.NewReader(file)
	if h.FrameRate > 0 {
		r.SetFrameRate(h.FrameRate)
	}
	h.reader = r
	h.counter = 0
	return nil
}

func (h *H265Hooks) DataInterval() time.Duration {
	fps := h.reader.FrameRate()
	if fps <= 0 {
		fps = h265.DefaultFrameRate
	}
	return time.Duration(float64(time.Second) / fps)
}

func (h *H265Hooks) SendNext() bool {
	au, ok := h.reader.ReadNext()
	if !ok {
		return false
	}
	fps := h.reader.FrameRate()
	if fps <= 0 {
		fps = h265.DefaultFrameRate
	}
	ts := h.counter * uint32(90000/fps)
	sent := h.session.PushFrame(AccessUnit{
		Data:                  au.Data,
		PresentationTimestamp: ts,
		MediaType:             "H265",
		IsKeyframe:            au.IsKeyframe,
	})
	if !sent {
		return false
	}
	h.counter++
	return true
}

func (h *H265Hooks) ResetReader() {
	h.reader.Reset()
}

func (h *H265Hooks) CleanupReader() { h.reader = nil }

func (h *H265Hooks) ReleaseFile() {
	if h.file != nil {
		h.Cache.Release(h.Path)
		h.file = nil
	}
}

func (h *H265Hooks) SeekToFrame(frame int) bool {
	if !h.reader.SeekToFrame(frame) {
		return false
	}
	h.counter = uint32(frame)
	return true
}

func (h *H265Hooks) SeekToTime(seconds float64) bool {
	return h.reader.SeekToTime(seconds)
}

func (h *H265Hooks) SetFrameRate(fps float64) {
	h.reader.SetFrameRate(fps)
}

func (h *H265Hooks) ResetToStart() {
	h.ResetReader()
}
