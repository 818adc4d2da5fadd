package mpegts

import "testing"

type fakeSource struct{ data []byte }

func (f fakeSource) Bytes() []byte { return f.data }

// buildPacket returns a single 188-byte TS packet with sync byte and PID set.
func buildPacket(pid uint16) []byte {
	p := make([]byte, PacketSize)
	p[0] = SyncByte
	p[1] = byte(pid >> 8 & 0x1F)
	p[2] = byte(pid)
	p[3] = 0x10 // payload-only, no adaptation field, continuity 0
	return p
}

func TestReadNextWalksPackets(t *testing.T) {
	var data []byte
	for i := 0; i < 10; i++ {
		data = append(data, buildPacket(uint16(100+i))...)
	}
	r := NewReader(fakeSource{data})

	if got := r.TotalPackets(); got != 10 {
		t.Fatalf("TotalPackets = %d, want 10", got)
	}

	count := 0
	for {
		au, ok := r.ReadNext()
		if !ok {
			break
		}
		if len(au.Data) != PacketSize {
			t.Fatalf("packet %d: length %d, want %d", count, len(au.Data), PacketSize)
		}
		if au.PresentationIndex != uint64(count) {
			t.Fatalf("packet %d: index %d", count, au.PresentationIndex)
		}
		count++
	}
	if count != 10 {
		t.Fatalf("read %d packets, want 10", count)
	}
}

func TestReadNextResyncsPastGarbage(t *testing.T) {
	garbage := []byte{0x00, 0x01, 0x02}
	data := append(append([]byte{}, garbage...), buildPacket(200)...)
	r := NewReader(fakeSource{data})

	au, ok := r.ReadNext()
	if !ok {
		t.Fatal("expected one packet after resync")
	}
	if au.Data[0] != SyncByte {
		t.Fatalf("resynced packet does not start on sync byte: %x", au.Data[0])
	}
}

func TestResetRewindsToFirstSync(t *testing.T) {
	var data []byte
	for i := 0; i < 3; i++ {
		data = append(data, buildPacket(uint16(i))...)
	}
	r := NewReader(fakeSource{data})
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
	if first != second || first != 3 {
		t.Fatalf("first=%d second=%d, want 3/3", first, second)
	}
}

func TestTotalPacketsEmptyStream(t *testing.T) {
	r := NewReader(fakeSource{data: nil})
	if got := r.TotalPackets(); got != 0 {
		t.Fatalf("TotalPackets = %d, want 0", got)
	}
	if _, ok := r.ReadNext(); ok {
		t.Fatal("expected no packets from empty stream")
	}
}
