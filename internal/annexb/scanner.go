// Package annexb locates and classifies NAL units in H.264/H.265 Annex-B
// byte streams, where units are delimited by 00 00 00 01 or 00 00 01 start
// codes rather than explicit lengths.
package annexb

// Flavor selects how a NAL unit's type field is decoded, since H.264 and
// H.265 pack it differently into the byte following the start code.
type Flavor int

const (
	// H264 NAL type is the low 5 bits of the byte after the start code.
	H264 Flavor = iota
	// H265 NAL type is bits 1-6 of the byte after the start code.
	H265
)

// NALType returns the codec-appropriate NAL unit type for the byte
// immediately following a start code.
func (f Flavor) NALType(b byte) int {
	if f == H265 {
		return int(b>>1) & 0x3F
	}
	return int(b) & 0x1F
}

// startCodeLen returns the start code length (3 or 4) at offset i in data,
// or 0 if no start code begins there. The 4-byte form is preferred over the
// 3-byte form when both would match (i.e. 00 00 00 01 is reported as a
// single 4-byte code, never as a leading zero followed by a 3-byte code).
func startCodeLen(data []byte, i int) int {
	if i+4 <= len(data) && data[i] == 0 && data[i+1] == 0 && data[i+2] == 0 && data[i+3] == 1 {
		return 4
	}
	if i+3 <= len(data) && data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
		return 3
	}
	return 0
}

// findStartCode returns the offset of the next start code at or after
// from, and its length, or (-1, 0) if none is found.
func findStartCode(data []byte, from int) (int, int) {
	if from < 0 {
		from = 0
	}
	for i := from; i+3 <= len(data); i++ {
		if n := startCodeLen(data, i); n > 0 {
			return i, n
		}
	}
	return -1, 0
}

// NALUnit describes one NAL unit located by FindNext.
type NALUnit struct {
	// Offset is the byte offset of the first byte of the start code.
	Offset int
	// Length spans from Offset up to (but excluding) the next start code,
	// or to EOF. It includes the start code itself.
	Length int
	// Type is the codec-specific NAL unit type.
	Type int
}

// FindNext locates the next NAL unit in data at or after startOffset. It
// returns false if no start code is found, or if a trailing start code has
// no type byte following it.
func FindNext(data []byte, startOffset int, flavor Flavor) (NALUnit, bool) {
	begin, scLen := findStartCode(data, startOffset)
	if begin < 0 {
		return NALUnit{}, false
	}

	typeOffset := begin + scLen
	if typeOffset >= len(data) {
		return NALUnit{}, false
	}
	nalType := flavor.NALType(data[typeOffset])

	end, _ := findStartCode(data, typeOffset)
	if end < 0 {
		end = len(data)
	}

	return NALUnit{
		Offset: begin,
		Length: end - begin,
		Type:   nalType,
	}, true
}
