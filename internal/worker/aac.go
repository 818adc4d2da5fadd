package worker

import (
	"fmt"
	"time"

	"github.com/snapetech/rtspvod/internal/adts"
	"github.com/snapetech/rtspvod/internal/mapcache"
)

const aacSamplesPerFrame = adts.SamplesPerFrame

// AACHooks drives an ADTS/AAC worker: one frame per access unit, paced at
// 1024/sample_rate seconds, RTP timestamps advanced on the 90kHz clock so
// video and audio align when muxed upstream (spec §4.5).
type AACHooks struct {
	Cache *mapcache.Cache
	Path  string

	file       *mapcache.MappedFile
	reader     *adts.Reader
	sampleRate int
	session    PushSession
	counter    uint32
}

func NewAACHooks(cache *mapcache.Cache, path string, session PushSession) *AACHooks {
	return &AACHooks{Cache: cache, Path: path, session: session}
}

func (a *AACHooks) InitializeReader() error {
	file, err := a.Cache.Get(a.Path)
	if err != nil {
		return fmt.Errorf("aac worker: acquire %s: %w", a.Path, err)
	}
	a.file = file
	info := adts.Analyze(file)
	if info.SampleRate <= 0 {
		a.Cache.Release(a.Path)
		a.file = nil
		return fmt.Errorf("aac worker: %s: could not determine sample rate", a.Path)
	}
	a.sampleRate = info.SampleRate
	a.reader = adts.NewReader(file)
	a.counter = 0
	return nil
}

func (a *AACHooks) DataInterval() time.Duration {
	return time.Duration(float64(aacSamplesPerFrame) / float64(a.sampleRate) * float64(time.Second))
}

func (a *AACHooks) SendNext() bool {
	au, ok := a.reader.ReadNext()
	if !ok {
		return false
	}
	ts := a.counter * uint32(90000*aacSamplesPerFrame/a.sampleRate)
	sent := a.session.PushFrame(AccessUnit{
		Data:                  au.Data,
		PresentationTimestamp: ts,
		MediaType:             "AAC",
	})
	if !sent {
		return false
	}
	a.counter++
	return true
}

func (a *AACHooks) ResetReader() {
	a.reader.Reset()
}

func (a *AACHooks) CleanupReader() { a.reader = nil }

func (a *AACHooks) ReleaseFile() {
	if a.file != nil {
		a.Cache.Release(a.Path)
		a.file = nil
	}
}
