// Package h264 implements a per-session cursor over an H.264 Annex-B
// elementary stream: sequential access-unit reads, a lazily built
// frame index for seeking, and parameter-set extraction.
package h264

import (
	"sort"
	"sync"

	"github.com/snapetech/rtspvod/internal/annexb"
	"github.com/snapetech/rtspvod/internal/mapcache"
)

// DefaultFrameRate is used when no better estimate is available.
const DefaultFrameRate = 25

// NAL unit types relevant to this reader.
const (
	NALTypeSliceNonIDR = 1
	NALTypeSPS         = 7
	NALTypePPS         = 8
	NALTypeIDR         = 5
)

// IsVCL reports whether nalType denotes a coded video slice (as opposed to
// SPS/PPS/SEI/etc.).
func IsVCL(nalType int) bool {
	return nalType >= 1 && nalType <= 5
}

// IsKeyframe reports whether nalType is an IDR slice.
func IsKeyframe(nalType int) bool {
	return nalType == NALTypeIDR
}

// AccessUnit is one NAL unit including its Annex-B start code.
type AccessUnit struct {
	Data              []byte
	IsKeyframe        bool
	PresentationIndex uint64
	TimestampSeconds  float64
	NALType           int
}

// FrameIndexEntry describes one VCL NAL unit located during index
// construction.
type FrameIndexEntry struct {
	ByteOffset       int
	ByteLength       int
	TimestampSeconds float64
	IsKeyframe       bool
	NALType          int
}

// Reader is a cursor over a mapped H.264 Annex-B file. It is not safe for
// concurrent use: exactly one goroutine (the owning pacing worker) may call
// ReadNext/Seek*/Reset at a time.
type Reader struct {
	file      *mapcache.MappedFile
	offset    int
	index     uint64
	frameRate float64

	mu              sync.Mutex
	frameIndex      []FrameIndexEntry
	frameIndexBuilt bool
	paramSetsDone   bool
	sps             []byte
	pps             []byte
}

// NewReader constructs a reader over file, starting at offset 0.
func NewReader(file *mapcache.MappedFile) *Reader {
	return &Reader{file: file, frameRate: DefaultFrameRate}
}

// SetFrameRate overrides the frame rate used for timestamp synthesis.
func (r *Reader) SetFrameRate(fps float64) {
	if fps > 0 {
		r.frameRate = fps
	}
}

// FrameRate returns the configured frame rate.
func (r *Reader) FrameRate() float64 { return r.frameRate }

// ReadNext returns the next NAL unit (including its start code) at the
// current cursor position, advancing the cursor past it. It returns false
// at end of stream.
func (r *Reader) ReadNext() (AccessUnit, bool) {
	nal, ok := annexb.FindNext(r.file.Bytes(), r.offset, annexb.H264)
	if !ok {
		return AccessUnit{}, false
	}

	au := AccessUnit{
		Data:              r.file.Bytes()[nal.Offset : nal.Offset+nal.Length],
		IsKeyframe:        IsKeyframe(nal.Type),
		PresentationIndex: r.index,
		NALType:           nal.Type,
	}
	r.offset = nal.Offset + nal.Length
	r.index++
	au.TimestampSeconds = float64(r.index-1) / r.frameRate
	return au, true
}

// Reset rewinds the cursor to the start of the file.
func (r *Reader) Reset() {
	r.offset = 0
	r.index = 0
}

// buildFrameIndex scans the whole file once, recording every VCL NAL unit.
// Idempotent; safe to call from seek or stats paths under the reader's
// internal lock (lazy initialization, not the const-cast idiom the C++
// source used).
func (r *Reader) buildFrameIndex() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frameIndexBuilt {
		return
	}

	data := r.file.Bytes()
	var entries []FrameIndexEntry
	var vclIndex float64
	offset := 0
	for {
		nal, ok := annexb.FindNext(data, offset, annexb.H264)
		if !ok {
			break
		}
		if IsVCL(nal.Type) {
			entries = append(entries, FrameIndexEntry{
				ByteOffset:       nal.Offset,
				ByteLength:       nal.Length,
				TimestampSeconds: vclIndex / r.frameRate,
				IsKeyframe:       IsKeyframe(nal.Type),
				NALType:          nal.Type,
			})
			vclIndex++
		}
		offset = nal.Offset + nal.Length
	}

	r.frameIndex = entries
	r.frameIndexBuilt = true
}

// FrameIndex returns the lazily built frame index, building it first if
// necessary.
func (r *Reader) FrameIndex() []FrameIndexEntry {
	r.buildFrameIndex()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameIndex
}

// SeekToFrame moves the cursor to the i-th VCL frame in the frame index.
func (r *Reader) SeekToFrame(i int) bool {
	entries := r.FrameIndex()
	if i < 0 || i >= len(entries) {
		return false
	}
	r.offset = entries[i].ByteOffset
	r.index = uint64(i)
	return true
}

// SeekToTime moves the cursor to the first frame whose timestamp is >= t.
func (r *Reader) SeekToTime(t float64) bool {
	entries := r.FrameIndex()
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].TimestampSeconds >= t
	})
	if idx >= len(entries) {
		return false
	}
	return r.SeekToFrame(idx)
}

// ExtractParameterSets scans the first 64 KiB of the file for the first SPS
// and PPS (each including its start code). Idempotent and lazy.
func (r *Reader) ExtractParameterSets() (sps, pps []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paramSetsDone {
		return r.sps, r.pps
	}
	r.paramSetsDone = true

	data := r.file.Bytes()
	limit := 64 * 1024
	if limit > len(data) {
		limit = len(data)
	}
	window := data[:limit]

	offset := 0
	for {
		nal, ok := annexb.FindNext(window, offset, annexb.H264)
		if !ok {
			break
		}
		switch nal.Type {
		case NALTypeSPS:
			if r.sps == nil {
				r.sps = append([]byte(nil), window[nal.Offset:nal.Offset+nal.Length]...)
			}
		case NALTypePPS:
			if r.pps == nil {
				r.pps = append([]byte(nil), window[nal.Offset:nal.Offset+nal.Length]...)
			}
		}
		offset = nal.Offset + nal.Length
		if r.sps != nil && r.pps != nil {
			break
		}
	}
	return r.sps, r.pps
}

// Resolution returns the width/height parsed from the extracted SPS, if
// any parameter sets have been found.
func (r *Reader) Resolution() (width, height int, ok bool) {
	sps, _ := r.ExtractParameterSets()
	if len(sps) <= 4 {
		return 0, 0, false
	}
	// Strip the start code before handing to the SPS parser.
	payload := stripStartCode(sps)
	return GetResolution(payload)
}

func stripStartCode(nal []byte) []byte {
	if len(nal) >= 4 && nal[0] == 0 && nal[1] == 0 && nal[2] == 0 && nal[3] == 1 {
		return nal[4:]
	}
	if len(nal) >= 3 && nal[0] == 0 && nal[1] == 0 && nal[2] == 1 {
		return nal[3:]
	}
	return nal
}
