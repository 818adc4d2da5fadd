package annexb

import "testing"

func TestFindNextBasicH264(t *testing.T) {
	// SPS(7), PPS(8), IDR(5) each with a 4-byte start code.
	data := []byte{
		0, 0, 0, 1, 0x67, 0xAA, 0xBB,
		0, 0, 0, 1, 0x68, 0xCC,
		0, 0, 0, 1, 0x65, 0xDD, 0xEE, 0xFF,
	}

	nal, ok := FindNext(data, 0, H264)
	if !ok {
		t.Fatal("expected a NAL unit")
	}
	if nal.Offset != 0 || nal.Length != 7 || nal.Type != 7 {
		t.Fatalf("unexpected first NAL: %+v", nal)
	}

	nal, ok = FindNext(data, nal.Offset+nal.Length, H264)
	if !ok {
		t.Fatal("expected second NAL unit")
	}
	if nal.Offset != 7 || nal.Length != 6 || nal.Type != 8 {
		t.Fatalf("unexpected second NAL: %+v", nal)
	}

	nal, ok = FindNext(data, nal.Offset+nal.Length, H264)
	if !ok {
		t.Fatal("expected third NAL unit")
	}
	if nal.Offset != 13 || nal.Length != 8 || nal.Type != 5 {
		t.Fatalf("unexpected third NAL: %+v", nal)
	}

	_, ok = FindNext(data, nal.Offset+nal.Length, H264)
	if ok {
		t.Fatal("expected no more NAL units")
	}
}

func TestFindNextPrefersFourByteStartCode(t *testing.T) {
	data := []byte{0, 0, 0, 1, 0x67, 0xAA}
	nal, ok := FindNext(data, 0, H264)
	if !ok || nal.Offset != 0 || nal.Length != 6 {
		t.Fatalf("expected 4-byte start code consumed as one unit, got %+v ok=%v", nal, ok)
	}
}

func TestFindNextThreeByteStartCode(t *testing.T) {
	data := []byte{0, 0, 1, 0x67, 0xAA}
	nal, ok := FindNext(data, 0, H264)
	if !ok || nal.Offset != 0 || nal.Length != 5 {
		t.Fatalf("unexpected result for 3-byte start code: %+v ok=%v", nal, ok)
	}
}

func TestFindNextNoStartCode(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	if _, ok := FindNext(data, 0, H264); ok {
		t.Fatal("expected no NAL unit when there is no start code")
	}
}

func TestFindNextTrailingStartCodeNoPayload(t *testing.T) {
	data := []byte{0, 0, 0, 1}
	if _, ok := FindNext(data, 0, H264); ok {
		t.Fatal("expected false for a trailing start code with no type byte")
	}
}

func TestFindNextH265TypeMask(t *testing.T) {
	// H.265 NAL header: forbidden_zero_bit(1) | type(6) | layer_id(6) | tid(3).
	// type=19 (IDR_W_RADL) -> first byte = type<<1 = 0b00100110 = 0x26.
	data := []byte{0, 0, 0, 1, 0x26, 0x01, 0xAA}
	nal, ok := FindNext(data, 0, H265)
	if !ok || nal.Type != 19 {
		t.Fatalf("expected H.265 type 19, got %+v ok=%v", nal, ok)
	}
}
