// Package mediacatalog scans a media directory, classifies each file by
// extension, probes it with a short-lived reader to extract stream
// metadata, and builds the read-mostly table the RTSP layer consults on
// DESCRIBE/SETUP (C11).
package mediacatalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/snapetech/rtspvod/internal/adts"
	"github.com/snapetech/rtspvod/internal/h264"
	"github.com/snapetech/rtspvod/internal/h265"
	"github.com/snapetech/rtspvod/internal/mapcache"
	"github.com/snapetech/rtspvod/internal/mkvbridge"
	"github.com/snapetech/rtspvod/internal/mpegts"
)

// Codec identifies the elementary-stream format of a catalog entry.
type Codec string

const (
	H264 Codec = "H264"
	H265 Codec = "H265"
	AAC  Codec = "AAC"
	MP2T Codec = "MP2T"
	MKV  Codec = "MKV"
)

// classifyExtension maps a file extension (case-insensitive) to a codec, or
// "" if the extension is not recognized (per spec §4.6, unrecognized
// extensions are skipped silently).
func classifyExtension(ext string) Codec {
	switch strings.ToLower(ext) {
	case ".h264", ".264":
		return H264
	case ".265", ".hevc":
		return H265
	case ".aac":
		return AAC
	case ".ts", ".m2ts":
		return MP2T
	case ".mkv":
		return MKV
	default:
		return ""
	}
}

// StreamInfo is the probed metadata for one catalog entry.
type StreamInfo struct {
	Codec        Codec   `json:"codec"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	FrameRate    float64 `json:"frame_rate,omitempty"`
	SampleRate   int     `json:"sample_rate,omitempty"`
	Channels     int     `json:"channels,omitempty"`
	Profile      string  `json:"profile,omitempty"`
	Bitrate      float64 `json:"bitrate,omitempty"`
	DurationSecs float64 `json:"duration_secs,omitempty"`
}

// Entry is one discovered media file.
type Entry struct {
	DisplayName string     `json:"display_name"`
	StreamPath  string     `json:"stream_path"` // leading '/', used as the RTSP mount point
	FilePath    string     `json:"file_path"`
	Codec       Codec      `json:"codec"`
	Info        StreamInfo `json:"info"`

	// WantVideo and TrackIndex select which Matroska track this entry
	// drives; meaningful only when Codec == MKV. A multi-track MKV file
	// gets a companion entry for its second track (spec §4.4/S6), at its
	// own StreamPath, so a second PLAY routes to an independently-paced
	// worker for it instead of re-opening the video track.
	WantVideo      bool `json:"want_video,omitempty"`
	TrackIndex     int  `json:"track_index,omitempty"`
	TrackCompanion bool `json:"track_companion,omitempty"` // true for the synthetic second-track entry; hidden from directory listings
}

// Catalog is the read-mostly table of discovered entries, keyed by
// stream path.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New constructs an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Scan walks dir (non-recursively, matching the original's flat media
// directory model), classifying and probing every regular file it
// recognizes. cache is used to mmap each candidate file; the mapped handle
// is released immediately after the probe per spec §4.6 ("the cache keeps
// no strong reference between scan and first PLAY").
func (c *Catalog) Scan(dir string, cache *mapcache.Cache) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("mediacatalog: read dir %s: %w", dir, err)
	}

	found := make(map[string]Entry)
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		codec := classifyExtension(filepath.Ext(de.Name()))
		if codec == "" {
			continue
		}
		path := filepath.Join(dir, de.Name())
		probed, err := probe(path, de.Name(), codec, cache)
		if err != nil {
			log.Printf("mediacatalog: skip %s: %v", path, err)
			continue
		}
		for _, entry := range probed {
			found[entry.StreamPath] = entry
		}
	}

	c.mu.Lock()
	c.entries = found
	c.mu.Unlock()
	log.Printf("mediacatalog: scan complete dir=%s entries=%d", dir, len(found))
	return nil
}

// probe returns the one or more catalog entries a media file produces. Every
// codec but MKV yields exactly one; MKV yields a second, companion entry
// when the container carries both a video and an audio track.
func probe(path, name string, codec Codec, cache *mapcache.Cache) ([]Entry, error) {
	file, err := cache.Get(path)
	if err != nil {
		return nil, err
	}
	defer cache.Release(path)

	if codec == MKV {
		return probeMKV(path, name, file)
	}

	info := StreamInfo{Codec: codec}
	switch codec {
	case H264:
		r := h264.NewReader(file)
		if sps, _ := r.ExtractParameterSets(); sps != nil {
			raw := stripAnnexBHeader(sps)
			if w, h, ok := h264.GetResolution(raw); ok {
				info.Width, info.Height = w, h
			}
			v := h264.ParseSPS(raw)
			if v.Valid {
				info.Profile = h264.ProfileName(v.ProfileIDC)
			}
		}
		info.FrameRate = r.FrameRate()
	case H265:
		r := h265.NewReader(file)
		info.FrameRate = r.FrameRate()
	case AAC:
		aacInfo := adts.Analyze(file)
		info.SampleRate = aacInfo.SampleRate
		info.Channels = aacInfo.Channels
		info.Profile = aacInfo.Profile
		info.DurationSecs = aacInfo.DurationSecs
		info.Bitrate = aacInfo.AvgBitrate
	case MP2T:
		r := mpegts.NewReader(file)
		total := r.TotalPackets()
		info.Bitrate = mpegts.DefaultBitrate
		info.DurationSecs = float64(total*mpegts.PacketSize*8) / mpegts.DefaultBitrate
	}

	return []Entry{{
		DisplayName: name,
		StreamPath:  "/" + name,
		FilePath:    path,
		Codec:       codec,
		Info:        info,
	}}, nil
}

// probeMKV builds the primary (video-preferring) entry for an MKV file and,
// when the container has both a video and an audio track, a companion entry
// reachable at its own stream path so a second PLAY can start an
// independently-paced worker for the audio track (spec §4.4/S6's "two
// workers, one per track"). Track enumeration beyond this presence check is
// deferred to first PLAY, same as before.
func probeMKV(path, name string, file *mapcache.MappedFile) ([]Entry, error) {
	hasVideo, hasAudio, err := mkvbridge.ProbeTracks(file)
	if err != nil {
		return nil, fmt.Errorf("mediacatalog: probe mkv tracks %s: %w", path, err)
	}

	primary := Entry{
		DisplayName: name,
		StreamPath:  "/" + name,
		FilePath:    path,
		Codec:       MKV,
		Info:        StreamInfo{Codec: MKV},
		WantVideo:   hasVideo,
	}
	entries := []Entry{primary}

	if hasVideo && hasAudio {
		entries = append(entries, Entry{
			DisplayName:    name,
			StreamPath:     "/" + name + "/audio",
			FilePath:       path,
			Codec:          MKV,
			Info:           StreamInfo{Codec: MKV},
			WantVideo:      false,
			TrackIndex:     1,
			TrackCompanion: true,
		})
	}
	return entries, nil
}

// stripAnnexBHeader removes the Annex-B start code ExtractParameterSets
// already includes, since h264.ParseSPS expects raw RBSP bytes.
func stripAnnexBHeader(sps []byte) []byte {
	for _, scLen := range []int{4, 3} {
		if len(sps) > scLen && sps[scLen-1] == 1 {
			return sps[scLen:]
		}
	}
	return sps
}

// Add registers entry directly, keyed by its StreamPath. This is the Go
// shape of spec §6.3's add_media_stream(stream_path, stream_info): used by
// a real RTSP server integration to register a stream the catalog scan
// didn't discover on disk (e.g. a synthetic or externally-probed source),
// and by tests that want a catalog entry without running Scan.
func (c *Catalog) Add(e Entry) bool {
	if e.StreamPath == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.StreamPath] = e
	return true
}

// Lookup returns the entry for streamPath, if any.
func (c *Catalog) Lookup(streamPath string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[streamPath]
	return e, ok
}

// All returns every catalog entry, in no particular order.
func (c *Catalog) All() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// MarshalJSON lets the catalog be written straight to catalog.json for the
// vod-index binary and the /catalog.json debug endpoint.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.All())
}
