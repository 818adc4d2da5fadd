package worker

import (
	"fmt"
	"time"

	"github.com/snapetech/rtspvod/internal/h264"
	"github.com/snapetech/rtspvod/internal/mapcache"
	"github.com/snapetech/rtspvod/internal/mkvbridge"
)

// MKVHooks drives one track (video or audio) of a Matroska/WebM file. Per
// spec §4.4/S6, a multi-track MKV file gets one worker per selected track,
// each with independent pacing; the track index distinguishes them when
// pushing to the session.
type MKVHooks struct {
	Cache      *mapcache.Cache
	Path       string
	WantVideo  bool
	TrackIndex int
	FrameRate  float64 // video only; 0 uses h264.DefaultFrameRate

	file    *mapcache.MappedFile
	reader  *mkvbridge.Reader
	session PushSession
	counter uint32
}

func NewMKVHooks(cache *mapcache.Cache, path string, wantVideo bool, trackIndex int, frameRate float64, session PushSession) *MKVHooks {
	return &MKVHooks{Cache: cache, Path: path, WantVideo: wantVideo, TrackIndex: trackIndex, FrameRate: frameRate, session: session}
}

func (m *MKVHooks) InitializeReader() error {
	file, err := m.Cache.Get(m.Path)
	if err != nil {
		return fmt.Errorf("mkv worker: acquire %s: %w", m.Path, err)
	}
	m.file = file
	if err := m.openReader(); err != nil {
		return err
	}
	m.counter = 0
	return nil
}

// openReader (re)opens the demuxer against the already-held mapped file,
// without touching the cache reference count or the RTP-timestamp counter.
func (m *MKVHooks) openReader() error {
	reader, err := mkvbridge.NewReader(m.file, m.WantVideo)
	if err != nil {
		return fmt.Errorf("mkv worker: %s: %w", m.Path, err)
	}
	m.reader = reader
	return nil
}

func (m *MKVHooks) DataInterval() time.Duration {
	track := m.reader.Track()
	if track.IsVideo {
		fps := m.FrameRate
		if fps <= 0 {
			fps = float64(h264.DefaultFrameRate)
		}
		return time.Duration(float64(time.Second) / fps)
	}
	if track.SampleRate > 0 {
		return time.Duration(float64(1024) / float64(track.SampleRate) * float64(time.Second))
	}
	return time.Second / 25
}

func (m *MKVHooks) SendNext() bool {
	if m.reader == nil {
		return false
	}
	frame, ok := m.reader.ReadNext()
	if !ok {
		return false
	}
	track := m.reader.Track()

	var ts uint32
	mediaType := "AAC"
	if track.IsVideo {
		fps := m.FrameRate
		if fps <= 0 {
			fps = float64(h264.DefaultFrameRate)
		}
		ts = m.counter * uint32(90000/fps)
		mediaType = "MKV"
	} else {
		rate := track.SampleRate
		if rate <= 0 {
			rate = 48000
		}
		ts = m.counter * uint32(90000*1024/rate)
	}

	sent := m.session.PushFrameTrack(AccessUnit{
		Data:                  frame.Data,
		PresentationTimestamp: ts,
		MediaType:             mediaType,
		IsKeyframe:            frame.IsKeyframe,
	}, m.TrackIndex)
	if !sent {
		return false
	}
	m.counter++
	return true
}

// ResetReader re-opens the demuxer from the start of the file. The
// underlying bridge has no rewind primitive of its own (the demuxer is a
// one-shot push parser), so looping an MKV track means discarding and
// re-acquiring it.
func (m *MKVHooks) ResetReader() {
	m.reader = nil
	_ = m.openReader() // leaves m.reader nil on failure; SendNext then reports EOF.
}

func (m *MKVHooks) CleanupReader() { m.reader = nil }

func (m *MKVHooks) ReleaseFile() {
	if m.file != nil {
		m.Cache.Release(m.Path)
		m.file = nil
	}
}
