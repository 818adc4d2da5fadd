package worker

import (
	"fmt"
	"time"

	"github.com/snapetech/rtspvod/internal/mapcache"
	"github.com/snapetech/rtspvod/internal/mpegts"
)

// tsRTPIncrement is the synthetic per-packet RTP timestamp increment (40ms
// worth of ticks at 90kHz, spec §4.5's "3600-tick grid"). The PCR decoder
// (internal/mpegts, C14) is fully implemented and available for a future
// PCR-driven worker, but per spec §9's explicit Open Question the default
// TS worker keeps the synthetic grid since downstream players tolerate it.
const tsRTPIncrement = 3600

// TSHooks drives an MPEG-TS worker: one 188-byte packet per access unit,
// paced at (188*8)/bitrate seconds, RTP timestamps on the synthetic grid.
type TSHooks struct {
	Cache   *mapcache.Cache
	Path    string
	Bitrate int // 0 uses mpegts.DefaultBitrate

	file    *mapcache.MappedFile
	reader  *mpegts.Reader
	session PushSession
	counter uint32
}

func NewTSHooks(cache *mapcache.Cache, path string, bitrate int, session PushSession) *TSHooks {
	return &TSHooks{Cache: cache, Path: path, Bitrate: bitrate, session: session}
}

func (t *TSHooks) InitializeReader() error {
	file, err := t.Cache.Get(t.Path)
	if err != nil {
		return fmt.Errorf("ts worker: acquire %s: %w", t.Path, err)
	}
	t.file = file
	t.reader = mpegts.NewReader(file)
	if t.Bitrate <= 0 {
		t.Bitrate = mpegts.DefaultBitrate
	}
	t.counter = 0
	return nil
}

func (t *TSHooks) DataInterval() time.Duration {
	return time.Duration(float64(mpegts.PacketSize*8) / float64(t.Bitrate) * float64(time.Second))
}

func (t *TSHooks) SendNext() bool {
	au, ok := t.reader.ReadNext()
	if !ok {
		return false
	}
	ts := t.counter * tsRTPIncrement
	sent := t.session.PushFrame(AccessUnit{
		Data:                  au.Data,
		PresentationTimestamp: ts,
		MediaType:             "MP2T",
	})
	if !sent {
		return false
	}
	t.counter++
	return true
}

func (t *TSHooks) ResetReader() {
	t.reader.Reset()
}

func (t *TSHooks) CleanupReader() { t.reader = nil }

func (t *TSHooks) ReleaseFile() {
	if t.file != nil {
		t.Cache.Release(t.Path)
		t.file = nil
	}
}
