package h265

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/snapetech/rtspvod/internal/mapcache"
)

// h265Byte builds the first NAL header byte for a given H.265 nal_unit_type
// (forbidden_zero_bit=0, type in bits 1-6, low bit of layer_id in bit 0).
func h265Byte(nalType int) byte {
	return byte(nalType << 1)
}

func buildSample() []byte {
	var out []byte
	start := []byte{0, 0, 0, 1}
	out = append(out, start...)
	out = append(out, h265Byte(NALTypeVPS), 0x01, 0xAA)
	out = append(out, start...)
	out = append(out, h265Byte(NALTypeSPS), 0x01, 0xBB)
	out = append(out, start...)
	out = append(out, h265Byte(NALTypePPS), 0x01, 0xCC)
	out = append(out, start...)
	out = append(out, h265Byte(NALTypeIDRWRADL), 0x01, 0xDD)
	for i := 0; i < 4; i++ {
		out = append(out, start...)
		out = append(out, h265Byte(1), 0x01, byte(i)) // TRAIL_R non-IDR slice
	}
	return out
}

func openSample(t *testing.T) *Reader {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.h265")
	if err := os.WriteFile(path, buildSample(), 0o644); err != nil {
		t.Fatal(err)
	}
	cache := mapcache.New()
	mf, err := cache.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Release(path) })
	return NewReader(mf)
}

func TestReadNextSequence(t *testing.T) {
	r := openSample(t)

	au, ok := r.ReadNext()
	if !ok || au.NALType != NALTypeVPS {
		t.Fatalf("expected VPS first, got %+v ok=%v", au, ok)
	}
	au, ok = r.ReadNext()
	if !ok || au.NALType != NALTypeSPS {
		t.Fatalf("expected SPS second, got %+v ok=%v", au, ok)
	}
	au, ok = r.ReadNext()
	if !ok || au.NALType != NALTypePPS {
		t.Fatalf("expected PPS third, got %+v ok=%v", au, ok)
	}
	au, ok = r.ReadNext()
	if !ok || !au.IsKeyframe {
		t.Fatalf("expected IDR fourth, got %+v ok=%v", au, ok)
	}
}

func TestFrameIndexAndKeyframes(t *testing.T) {
	r := openSample(t)
	entries := r.FrameIndex()
	if len(entries) != 5 { // 1 IDR + 4 TRAIL_R
		t.Fatalf("expected 5 VCL entries, got %d", len(entries))
	}
	if !entries[0].IsKeyframe {
		t.Fatal("first entry should be keyframe")
	}
	for _, e := range entries[1:] {
		if e.IsKeyframe {
			t.Fatal("non-IDR entry incorrectly marked keyframe")
		}
	}
}

func TestExtractParameterSetsVPSSPSPPS(t *testing.T) {
	r := openSample(t)
	vps, sps, pps := r.ExtractParameterSets()
	if len(vps) == 0 || len(sps) == 0 || len(pps) == 0 {
		t.Fatalf("expected all three parameter sets, got vps=%v sps=%v pps=%v", vps, sps, pps)
	}
}

func TestResetReplayIdentical(t *testing.T) {
	r := openSample(t)
	var first [][]byte
	for {
		au, ok := r.ReadNext()
		if !ok {
			break
		}
		first = append(first, append([]byte(nil), au.Data...))
	}
	r.Reset()
	var second [][]byte
	for {
		au, ok := r.ReadNext()
		if !ok {
			break
		}
		second = append(second, append([]byte(nil), au.Data...))
	}
	if len(first) != len(second) {
		t.Fatalf("length mismatch %d vs %d", len(first), len(second))
	}
	for i := range first {
		if string(first[i]) != string(second[i]) {
			t.Fatalf("unit %d differs", i)
		}
	}
}
