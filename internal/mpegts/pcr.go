package mpegts

// PacketInfo is the subset of a TS packet's header relevant to pacing.
type PacketInfo struct {
	HasPCR             bool
	PCR                uint64 // 27 MHz ticks
	PID                uint16
	HasAdaptationField bool
	Discontinuity      bool
	RandomAccess       bool
}

const pcr33BitMax = uint64(1) << 33

// ParsePacket decodes a single 188-byte TS packet's header and, if present,
// its adaptation-field PCR. packet must be exactly PacketSize bytes.
func ParsePacket(packet []byte) (PacketInfo, bool) {
	if len(packet) != PacketSize || packet[0] != SyncByte {
		return PacketInfo{}, false
	}

	var info PacketInfo
	info.PID = (uint16(packet[1]&0x1F) << 8) | uint16(packet[2])

	adaptationFieldControl := (packet[3] >> 4) & 0x3
	info.HasAdaptationField = adaptationFieldControl == 0x2 || adaptationFieldControl == 0x3
	if !info.HasAdaptationField {
		return info, true
	}

	if len(packet) < 5 {
		return info, true
	}
	afLength := int(packet[4])
	if afLength == 0 || 5+afLength > len(packet) {
		return info, true
	}

	flags := packet[5]
	info.Discontinuity = flags&0x80 != 0
	info.RandomAccess = flags&0x40 != 0
	pcrFlag := flags&0x10 != 0
	if pcrFlag && afLength >= 7 {
		pcr, ok := extractPCR(packet[6:11])
		if ok {
			info.HasPCR = true
			info.PCR = pcr
		}
	}
	return info, true
}

// extractPCR decodes the 5-byte PCR field immediately following the
// adaptation-field flags byte: a 33-bit base (the top 32 bits across
// field[0..3] plus the high bit of field[4]), one reserved bit, and a
// 6-bit extension in the low bits of field[4]. field must be exactly 5
// bytes. PCR (27 MHz ticks) = base*300 + ext.
func extractPCR(field []byte) (uint64, bool) {
	if len(field) < 5 {
		return 0, false
	}
	base := (uint64(field[0]) << 25) |
		(uint64(field[1]) << 17) |
		(uint64(field[2]) << 9) |
		(uint64(field[3]) << 1) |
		(uint64(field[4]) >> 7)
	ext := uint64(field[4] & 0x3F)
	return base*300 + ext, true
}

// PCRToRTPTimestamp converts a 27 MHz PCR value to a 90 kHz RTP timestamp.
func PCRToRTPTimestamp(pcr uint64) uint32 {
	return uint32(pcr / 300)
}

// CalculateRTPIncrementFromPCR derives a per-packet RTP timestamp increment
// (90 kHz clock) from two PCR samples packetCount packets apart.
func CalculateRTPIncrementFromPCR(pcr1, pcr2 uint64, packetCount uint32) uint32 {
	if packetCount == 0 {
		return 0
	}
	delta := pcrDelta(pcr1, pcr2)
	return uint32(delta/300) / packetCount
}

// pcrDelta returns curr-prev accounting for 33-bit PCR base wraparound.
func pcrDelta(prev, curr uint64) uint64 {
	if curr >= prev {
		return curr - prev
	}
	// Wrapped: the 33-bit base (x300 scale) rolled over.
	wrapSpan := pcr33BitMax * 300
	return wrapSpan - prev + curr
}

// IsPCRDiscontinuous reports whether the gap between two PCR samples
// exceeds maxInterval (27 MHz ticks), accounting for 33-bit wraparound.
func IsPCRDiscontinuous(prev, curr uint64, maxInterval uint64) bool {
	return pcrDelta(prev, curr) > maxInterval
}

// DefaultMaxPCRInterval is 0.1s expressed in 27 MHz ticks.
const DefaultMaxPCRInterval = 2_700_000
