package mkvbridge

import "testing"

func TestAnnexBFrameConvertsLengthPrefixedNALs(t *testing.T) {
	nal1 := []byte{0x65, 0x01, 0x02}
	nal2 := []byte{0x41, 0x03}
	block := append(lengthPrefixed(nal1), lengthPrefixed(nal2)...)

	got := annexBFrame(Track{IsVideo: true}, block)
	want := append(append(append([]byte{}, startCode...), nal1...), append(startCode, nal2...)...)
	if string(got) != string(want) {
		t.Fatalf("annexBFrame = %x, want %x", got, want)
	}
}

func TestAnnexBFramePassesThroughAudio(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC}
	got := annexBFrame(Track{IsVideo: false}, data)
	if string(got) != string(data) {
		t.Fatalf("expected passthrough for audio, got %x", got)
	}
}

func lengthPrefixed(nal []byte) []byte {
	n := len(nal)
	return append([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}, nal...)
}
