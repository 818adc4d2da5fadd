package mkvbridge

// ParameterSets holds Annex-B-framed parameter sets extracted from an
// ISO-BMFF codec_private blob (avcC or hvcC), each already prefixed with
// the 4-byte start code 00 00 00 01.
type ParameterSets struct {
	VPS []byte // HEVC only
	SPS []byte
	PPS []byte
}

var startCode = []byte{0x00, 0x00, 0x00, 0x01}

// ParseAVCC extracts the first SPS and first PPS from an AVCDecoderConfigurationRecord
// (avcC), per spec: skip the 5-byte fixed header, read num_sps from the low 5
// bits of the next byte, read each SPS as a 2-byte big-endian length plus
// payload, then read num_pps and repeat for PPS. Forgiving by design: stops
// as soon as a declared length would overrun the blob rather than erroring.
func ParseAVCC(codecPrivate []byte) ParameterSets {
	var out ParameterSets
	if len(codecPrivate) < 6 {
		return out
	}
	offset := 5
	numSPS := int(codecPrivate[offset] & 0x1F)
	offset++
	for i := 0; i < numSPS; i++ {
		nal, next, ok := readLengthPrefixed(codecPrivate, offset)
		offset = next
		if !ok {
			return out
		}
		if out.SPS == nil {
			out.SPS = append(append([]byte{}, startCode...), nal...)
		}
	}
	if offset >= len(codecPrivate) {
		return out
	}
	numPPS := int(codecPrivate[offset])
	offset++
	for i := 0; i < numPPS; i++ {
		nal, next, ok := readLengthPrefixed(codecPrivate, offset)
		offset = next
		if !ok {
			return out
		}
		if out.PPS == nil {
			out.PPS = append(append([]byte{}, startCode...), nal...)
		}
	}
	return out
}

// ParseHVCC extracts the first VPS, SPS and PPS from an HEVCDecoderConfigurationRecord
// (hvcC): skip the 22-byte fixed header, read num_arrays, then for each array
// read a 1-byte NAL-unit-type header (low 6 bits are the type), a 2-byte NAL
// count, and that many length-prefixed NALs. Only the first NAL of each
// array is captured per parameter-set type.
func ParseHVCC(codecPrivate []byte) ParameterSets {
	var out ParameterSets
	if len(codecPrivate) < 23 {
		return out
	}
	offset := 22
	numArrays := int(codecPrivate[offset])
	offset++
	for a := 0; a < numArrays; a++ {
		if offset+3 > len(codecPrivate) {
			return out
		}
		nalType := codecPrivate[offset] & 0x3F
		offset++
		numNALs := (int(codecPrivate[offset]) << 8) | int(codecPrivate[offset+1])
		offset += 2
		for n := 0; n < numNALs; n++ {
			nal, next, ok := readLengthPrefixed(codecPrivate, offset)
			offset = next
			if !ok {
				return out
			}
			framed := append(append([]byte{}, startCode...), nal...)
			switch nalType {
			case 32:
				if out.VPS == nil {
					out.VPS = framed
				}
			case 33:
				if out.SPS == nil {
					out.SPS = framed
				}
			case 34:
				if out.PPS == nil {
					out.PPS = framed
				}
			}
		}
	}
	return out
}

// readLengthPrefixed reads a 2-byte big-endian length followed by that many
// bytes, starting at offset. Returns the payload, the offset just past it,
// and false if the declared length would overrun data.
func readLengthPrefixed(data []byte, offset int) ([]byte, int, bool) {
	if offset+2 > len(data) {
		return nil, offset, false
	}
	length := (int(data[offset]) << 8) | int(data[offset+1])
	offset += 2
	if offset+length > len(data) {
		return nil, offset, false
	}
	return data[offset : offset+length], offset + length, true
}
