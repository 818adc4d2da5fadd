package adts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/snapetech/rtspvod/internal/mapcache"
)

// buildFrame constructs one ADTS frame: sync(12) version(1) layer(2)
// protAbsent(1) profile(2) sfi(4) priv(1) chanConfig(3) orig(1) home(1)
// copyID(1) copyStart(1) frameLen(13) bufFullness(11) numFrames(2).
func buildFrame(profile uint8, sfi uint8, channels uint8, payload []byte) []byte {
	frameLen := HeaderSize + len(payload)
	h := make([]byte, HeaderSize)
	h[0] = 0xFF
	h[1] = 0xF1 // syncword top 4 bits + version(0) + layer(00) + protAbsent(1)
	h[2] = (profile << 6) | (sfi << 2) | ((channels >> 2) & 0x1)
	h[3] = ((channels & 0x3) << 6) | byte((frameLen>>11)&0x3)
	h[4] = byte((frameLen >> 3) & 0xFF)
	h[5] = byte((frameLen&0x7)<<5) | 0x1F
	h[6] = 0xFC
	return append(h, payload...)
}

func TestParseHeaderRoundTrip(t *testing.T) {
	frame := buildFrame(1, 3, 2, []byte{0xAA, 0xBB, 0xCC})
	hdr, err := ParseHeader(frame)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Profile != 1 || hdr.SamplingFrequencyIdx != 3 || hdr.ChannelConfig != 2 {
		t.Fatalf("unexpected header: %+v", hdr)
	}
	if hdr.FrameLength != len(frame) {
		t.Fatalf("FrameLength = %d, want %d", hdr.FrameLength, len(frame))
	}
}

func TestParseHeaderBadSync(t *testing.T) {
	frame := buildFrame(1, 3, 2, []byte{0xAA})
	frame[0] = 0x00
	if _, err := ParseHeader(frame); err == nil {
		t.Fatal("expected error for bad sync word")
	}
}

func openSample(t *testing.T, data []byte) *mapcache.MappedFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.aac")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cache := mapcache.New()
	mf, err := cache.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Release(path) })
	return mf
}

func TestReaderEnumeratesFrames(t *testing.T) {
	var data []byte
	const n = 100
	for i := 0; i < n; i++ {
		data = append(data, buildFrame(1, 3, 2, []byte{byte(i), byte(i + 1)})...)
	}
	mf := openSample(t, data)
	r := NewReader(mf)

	count := 0
	var lastLen int
	for {
		au, ok := r.ReadNext()
		if !ok {
			break
		}
		hdr, err := ParseHeader(au.Data)
		if err != nil {
			t.Fatal(err)
		}
		if hdr.FrameLength != len(au.Data) {
			t.Fatalf("frame %d: declared length %d != emitted %d", count, hdr.FrameLength, len(au.Data))
		}
		if au.Data[0] != 0xFF || (au.Data[1]&0xF0) != 0xF0 {
			t.Fatalf("frame %d: sync bytes wrong: %x %x", count, au.Data[0], au.Data[1])
		}
		lastLen = len(au.Data)
		count++
	}
	if count != n {
		t.Fatalf("expected %d frames, got %d", n, count)
	}
	_ = lastLen
}

func TestAnalyzeMetadata(t *testing.T) {
	var data []byte
	const n = 100
	for i := 0; i < n; i++ {
		data = append(data, buildFrame(1, 3 /* 48000 */, 2, []byte{0x00, 0x00})...)
	}
	mf := openSample(t, data)
	info := Analyze(mf)
	if info.SampleRate != 48000 {
		t.Fatalf("SampleRate = %d, want 48000", info.SampleRate)
	}
	if info.FrameCount != n {
		t.Fatalf("FrameCount = %d, want %d", info.FrameCount, n)
	}
	wantDuration := float64(n) * SamplesPerFrame / 48000.0
	if info.DurationSecs != wantDuration {
		t.Fatalf("DurationSecs = %v, want %v", info.DurationSecs, wantDuration)
	}
}

func TestResetAllowsReplay(t *testing.T) {
	var data []byte
	for i := 0; i < 5; i++ {
		data = append(data, buildFrame(1, 3, 2, []byte{byte(i)})...)
	}
	mf := openSample(t, data)
	r := NewReader(mf)
	first := 0
	for {
		_, ok := r.ReadNext()
		if !ok {
			break
		}
		first++
	}
	r.Reset()
	second := 0
	for {
		_, ok := r.ReadNext()
		if !ok {
			break
		}
		second++
	}
	if first != second {
		t.Fatalf("replay count mismatch: %d vs %d", first, second)
	}
}
