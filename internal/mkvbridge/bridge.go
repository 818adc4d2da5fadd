// Package mkvbridge bridges a mapped Matroska/WebM file to the engine's
// pull-based AccessUnit model. Unlike the elementary-stream readers in
// internal/h264, internal/h265 and internal/adts, the underlying demuxer
// (github.com/at-wat/ebml-go/webm) is push/callback-driven: it wants an
// io.Reader it can block on. chunkFeeder adapts that to the mapped buffer,
// and a background goroutine drains demuxed blocks into a bounded per-track
// queue that ReadNext pops from, giving callers the same pull-based shape as
// every other reader in this module.
package mkvbridge

import (
	"errors"
	"io"
	"time"

	"github.com/at-wat/ebml-go/webm"

	"github.com/snapetech/rtspvod/internal/mapcache"
)

// chunkSize is the size of each slice of the mapped file handed to the
// demuxer per feed, per spec §4.4.
const chunkSize = 128 * 1024

// queueCapacity is the bounded per-track frame queue depth; once full the
// oldest queued frame is dropped to make room for the newest.
const queueCapacity = 50

// refillThreshold is the queue depth at which the feeder goroutine resumes
// feeding the demuxer more data.
const refillThreshold = 10

// waitTimeout bounds how long ReadNext waits on an empty, not-yet-EOF queue,
// standing in for the condition variable's 100ms timeout in the original.
const waitTimeout = 100 * time.Millisecond

// InitTimeout is how long NewReader waits for the demuxer to report track
// info before giving up (the "mkv-init-timeout" error disposition).
const InitTimeout = 500 * time.Millisecond

// ErrInitTimeout is returned by NewReader when the demuxer fails to produce
// track metadata within InitTimeout.
var ErrInitTimeout = errors.New("mkvbridge: demuxer init timed out")

// Track describes one selected track's codec metadata, with parameter sets
// already converted to Annex-B where applicable.
type Track struct {
	Index      int
	IsVideo    bool
	CodecID    string
	FrameRate  float64 // video only, best-effort from engine/container hints
	SampleRate int     // audio only
	Channels   int     // audio only
	ParamSets  ParameterSets
}

// Frame is one demuxed block, already Annex-B-framed for AVC/HEVC video.
type Frame struct {
	Data              []byte
	TimestampMillis   int64
	IsKeyframe        bool
	PresentationIndex uint64
}

// chunkFeeder is an io.Reader over a mapped file that serves chunkSize
// slices on demand and blocks (via a channel handshake) until feed() is
// called again or the file is exhausted.
type chunkFeeder struct {
	data   []byte
	offset int
}

func (c *chunkFeeder) Read(p []byte) (int, error) {
	if c.offset >= len(c.data) {
		return 0, io.EOF
	}
	n := copy(p, c.data[c.offset:])
	c.offset += n
	return n, nil
}

// Reader demuxes one track of a mapped MKV/WebM file into Annex-B or raw
// AAC frames, queued and consumed pull-style.
type Reader struct {
	file  *mapcache.MappedFile
	track Track

	frames chan Frame
	eof    chan struct{}
	index  uint64
}

// NewReader opens file, waits up to InitTimeout for the demuxer to report
// track metadata, selects the first track whose type matches wantVideo, and
// starts the background feed/demux goroutine. Returns ErrInitTimeout if the
// demuxer never produces tracks in time.
func NewReader(file *mapcache.MappedFile, wantVideo bool) (*Reader, error) {
	info, blocks, err := openTracks(file)
	if err != nil {
		return nil, err
	}

	track, blockReader, err := selectTrack(info, blocks, wantVideo)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:   file,
		track:  track,
		frames: make(chan Frame, queueCapacity),
		eof:    make(chan struct{}),
	}
	go r.pump(blockReader)
	return r, nil
}

// openTracks waits up to InitTimeout for the demuxer to report track
// metadata and returns the parsed header plus one block reader per track,
// without starting any feed/demux goroutine. Shared by NewReader and
// ProbeTracks.
func openTracks(file *mapcache.MappedFile) (*webm.WebM, []*webm.SimpleBlockValueReader, error) {
	feeder := &chunkFeeder{data: file.Bytes()}

	type openResult struct {
		info   *webm.WebM
		blocks []*webm.SimpleBlockValueReader
		err    error
	}
	opened := make(chan openResult, 1)
	go func() {
		info, blocks, err := webm.NewSimpleBlockReader(feeder)
		opened <- openResult{info, blocks, err}
	}()

	select {
	case res := <-opened:
		return res.info, res.blocks, res.err
	case <-time.After(InitTimeout):
		return nil, nil, ErrInitTimeout
	}
}

// ProbeTracks reports which track kinds a Matroska/WebM file contains,
// without starting NewReader's feed/demux goroutine. Used by the catalog
// scan to decide whether an MKV entry needs a companion audio-track stream
// path (spec §4.4/S6).
func ProbeTracks(file *mapcache.MappedFile) (hasVideo, hasAudio bool, err error) {
	info, _, err := openTracks(file)
	if err != nil {
		return false, false, err
	}
	for _, entry := range info.Segment.Tracks.TrackEntry {
		if entry.TrackType == 1 {
			hasVideo = true
		} else {
			hasAudio = true
		}
	}
	return hasVideo, hasAudio, nil
}

// selectTrack picks the first track of the requested kind and pairs it with
// its block reader, converting codec_private to Annex-B parameter sets for
// AVC/HEVC tracks.
func selectTrack(info *webm.WebM, blocks []*webm.SimpleBlockValueReader, wantVideo bool) (Track, *webm.SimpleBlockValueReader, error) {
	for i, entry := range info.Segment.Tracks.TrackEntry {
		isVideo := entry.TrackType == 1
		if isVideo != wantVideo {
			continue
		}
		t := Track{Index: i, IsVideo: isVideo, CodecID: entry.CodecID}
		switch entry.CodecID {
		case "V_MPEG4/ISO/AVC":
			t.ParamSets = ParseAVCC(entry.CodecPrivate)
		case "V_MPEGH/ISO/HEVC":
			t.ParamSets = ParseHVCC(entry.CodecPrivate)
		}
		if entry.Video != nil {
			t.FrameRate = 0 // container rarely carries this reliably; engine falls back to its own default.
		}
		if entry.Audio != nil {
			t.SampleRate = int(entry.Audio.SamplingFrequency)
			t.Channels = int(entry.Audio.Channels)
		}
		if i < len(blocks) {
			return t, blocks[i], nil
		}
		return t, nil, errors.New("mkvbridge: track has no matching block reader")
	}
	return Track{}, nil, errors.New("mkvbridge: no matching track found")
}

// pump drains the demuxer's blocks into the bounded frame queue, dropping
// the oldest queued frame when full, until the source is exhausted.
func (r *Reader) pump(blockReader *webm.SimpleBlockValueReader) {
	defer close(r.eof)
	for {
		data, keyframe, err := blockReader.Read()
		if err != nil {
			return
		}
		frame := Frame{
			Data:              annexBFrame(r.track, data),
			TimestampMillis:   0, // ebml-go's SimpleBlockValueReader does not expose absolute timecode; engine paces by queue order instead.
			IsKeyframe:        keyframe,
			PresentationIndex: r.index,
		}
		r.index++
		select {
		case r.frames <- frame:
		default:
			// Queue full: drop oldest, then enqueue, per spec's drop-oldest policy.
			select {
			case <-r.frames:
			default:
			}
			select {
			case r.frames <- frame:
			default:
			}
		}
	}
}

// annexBFrame re-frames an AVC/HEVC length-prefixed block as a sequence of
// Annex-B NAL units; audio blocks pass through unchanged.
func annexBFrame(track Track, block []byte) []byte {
	if !track.IsVideo {
		return block
	}
	var out []byte
	offset := 0
	for offset+4 <= len(block) {
		length := int(block[offset])<<24 | int(block[offset+1])<<16 | int(block[offset+2])<<8 | int(block[offset+3])
		offset += 4
		if offset+length > len(block) {
			break
		}
		out = append(out, startCode...)
		out = append(out, block[offset:offset+length]...)
		offset += length
	}
	if out == nil {
		return block
	}
	return out
}

// ReadNext pops the next queued frame, waking up to retry every waitTimeout
// while the queue is empty and EOF has not yet been observed. Returns false
// only once the queue is drained and the demuxer goroutine has exited.
func (r *Reader) ReadNext() (Frame, bool) {
	for {
		select {
		case f, ok := <-r.frames:
			if ok {
				return f, true
			}
		case <-time.After(waitTimeout):
		}

		select {
		case f, ok := <-r.frames:
			if ok {
				return f, true
			}
		default:
		}

		select {
		case <-r.eof:
			// Drain any frames queued between EOF closing and this check.
			select {
			case f := <-r.frames:
				return f, true
			default:
				return Frame{}, false
			}
		default:
		}
	}
}

// Track returns the selected track's metadata.
func (r *Reader) Track() Track { return r.track }
