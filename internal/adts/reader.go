package adts

import "github.com/snapetech/rtspvod/internal/mapcache"

// AccessUnit is one full ADTS frame (7-byte header plus payload).
type AccessUnit struct {
	Data              []byte
	PresentationIndex uint64
}

// Reader is a sequential cursor over a mapped ADTS elementary stream.
type Reader struct {
	file   *mapcache.MappedFile
	offset int
	index  uint64
}

// NewReader constructs a reader over file, starting at offset 0.
func NewReader(file *mapcache.MappedFile) *Reader {
	return &Reader{file: file}
}

// ReadNext validates sync and layer at the current offset, then returns the
// full frame (header + payload). Returns false at end of stream or when a
// run of invalid bytes exceeds 1 MiB (the parse-error disposition from the
// engine's error handling design: skip forward, fail the reader if the run
// is too long to be recoverable).
func (r *Reader) ReadNext() (AccessUnit, bool) {
	data := r.file.Bytes()
	const maxSkip = 1 << 20

	start := r.offset
	for {
		sync := FindSyncWord(data, r.offset)
		if sync < 0 {
			return AccessUnit{}, false
		}
		if sync-start > maxSkip {
			return AccessUnit{}, false
		}

		hdr, err := ParseHeader(data[sync:])
		if err != nil {
			r.offset = sync + 1
			continue
		}
		end := sync + hdr.FrameLength
		if end > len(data) {
			return AccessUnit{}, false
		}

		au := AccessUnit{
			Data:              data[sync:end],
			PresentationIndex: r.index,
		}
		r.offset = end
		r.index++
		return au, true
	}
}

// Reset rewinds the cursor to the start of the file.
func (r *Reader) Reset() {
	r.offset = 0
	r.index = 0
}

// StreamInfo is scan-time metadata about the whole AAC stream.
type StreamInfo struct {
	SampleRate   int
	Channels     int
	Profile      string
	FrameCount   int
	DurationSecs float64
	AvgBitrate   float64
}

// Analyze scans the entire mapped file once and reports aggregate stream
// metadata. Safe to call independently of a Reader's own cursor (it does
// not mutate reader state), mirroring how the catalog's short-lived probe
// reader extracts metadata without disturbing session playback.
func Analyze(file *mapcache.MappedFile) StreamInfo {
	data := file.Bytes()
	var info StreamInfo
	offset := 0
	first := true

	for {
		sync := FindSyncWord(data, offset)
		if sync < 0 {
			break
		}
		hdr, err := ParseHeader(data[sync:])
		if err != nil {
			offset = sync + 1
			continue
		}
		end := sync + hdr.FrameLength
		if end > len(data) {
			break
		}
		if first {
			info.SampleRate = SamplingFrequency(hdr.SamplingFrequencyIdx)
			info.Channels = int(hdr.ChannelConfig)
			info.Profile = ProfileName(hdr.Profile)
			first = false
		}
		info.FrameCount++
		offset = end
	}

	if info.SampleRate > 0 {
		info.DurationSecs = float64(info.FrameCount) * SamplesPerFrame / float64(info.SampleRate)
		if info.DurationSecs > 0 {
			info.AvgBitrate = float64(len(data)) * 8 / info.DurationSecs
		}
	}
	return info
}
