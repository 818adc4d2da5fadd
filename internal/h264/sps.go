package h264

import "fmt"

// VideoInfo is the subset of an H.264 SPS relevant to stream registration.
type VideoInfo struct {
	Width          int
	Height         int
	ProfileIDC     int
	LevelIDC       int
	ChromaFormat   int
	BitDepthLuma   int
	BitDepthChroma int
	Valid          bool
}

type bitReader struct {
	buf []byte
	pos uint32
}

func (r *bitReader) bit() uint32 {
	byteIdx := r.pos / 8
	if int(byteIdx) >= len(r.buf) {
		r.pos++
		return 0
	}
	b := r.buf[byteIdx]
	shift := 7 - (r.pos % 8)
	r.pos++
	return uint32(b>>shift) & 1
}

func (r *bitReader) bits(n uint32) uint32 {
	var v uint32
	for i := uint32(0); i < n; i++ {
		v = (v << 1) | r.bit()
	}
	return v
}

// ue reads an unsigned Exp-Golomb coded value.
func (r *bitReader) ue() uint32 {
	zeros := uint32(0)
	for r.bit() == 0 {
		zeros++
		if zeros > 32 {
			return 0
		}
	}
	var value uint32
	for i := uint32(0); i < zeros; i++ {
		value = (value << 1) | r.bit()
	}
	return (1 << zeros) - 1 + value
}

// se reads a signed Exp-Golomb coded value.
func (r *bitReader) se() int32 {
	v := r.ue()
	k := (v + 1) / 2
	if v%2 == 0 {
		return -int32(k)
	}
	return int32(k)
}

func (r *bitReader) skipScalingList(size int) {
	lastScale, nextScale := int32(8), int32(8)
	for j := 0; j < size; j++ {
		if nextScale != 0 {
			delta := r.se()
			nextScale = (lastScale + delta + 256) & 0xff
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
}

// removeEmulationPrevention strips 0x03 emulation-prevention bytes that
// follow a 0x00 0x00 sequence, so Exp-Golomb decoding sees the true RBSP.
func removeEmulationPrevention(data []byte) []byte {
	out := make([]byte, 0, len(data))
	zeroRun := 0
	for i := 0; i < len(data); i++ {
		b := data[i]
		if zeroRun >= 2 && b == 0x03 && i+1 < len(data) && data[i+1] <= 0x03 {
			zeroRun = 0
			continue
		}
		if b == 0x00 {
			zeroRun++
		} else {
			zeroRun = 0
		}
		out = append(out, b)
	}
	return out
}

// profileHasChromaInfo reports whether an SPS for this profile carries the
// extended chroma_format_idc / bit-depth fields (high profiles and above).
func profileHasChromaInfo(profileIDC int) bool {
	switch profileIDC {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		return true
	default:
		return false
	}
}

// ParseSPS decodes resolution and profile/level fields from a raw SPS NAL
// unit. sps must include its NAL header byte but not the Annex-B start
// code.
func ParseSPS(sps []byte) VideoInfo {
	var info VideoInfo
	if len(sps) < 4 {
		return info
	}

	clean := removeEmulationPrevention(sps)
	r := &bitReader{buf: clean}

	r.bits(1) // forbidden_zero_bit
	r.bits(2) // nal_ref_idc
	nalType := r.bits(5)
	if nalType != 7 {
		return info
	}

	info.ProfileIDC = int(r.bits(8))
	r.bits(8) // constraint flags + reserved
	info.LevelIDC = int(r.bits(8))
	r.ue() // seq_parameter_set_id

	if profileHasChromaInfo(info.ProfileIDC) {
		info.ChromaFormat = int(r.ue())
		if info.ChromaFormat == 3 {
			r.bits(1) // separate_colour_plane_flag
		}
		info.BitDepthLuma = int(r.ue()) + 8
		info.BitDepthChroma = int(r.ue()) + 8
		r.bits(1) // qpprime_y_zero_transform_bypass_flag
		if r.bits(1) == 1 {
			count := 8
			if info.ChromaFormat == 3 {
				count = 12
			}
			for i := 0; i < count; i++ {
				if r.bits(1) == 1 {
					size := 16
					if i >= 6 {
						size = 64
					}
					r.skipScalingList(size)
				}
			}
		}
	} else {
		info.ChromaFormat = 1
		info.BitDepthLuma = 8
		info.BitDepthChroma = 8
	}

	r.ue() // log2_max_frame_num_minus4
	picOrderCntType := r.ue()
	if picOrderCntType == 0 {
		r.ue() // log2_max_pic_order_cnt_lsb_minus4
	} else if picOrderCntType == 1 {
		r.bits(1) // delta_pic_order_always_zero_flag
		r.se()    // offset_for_non_ref_pic
		r.se()    // offset_for_top_to_bottom_field
		numRefFrames := r.ue()
		for i := uint32(0); i < numRefFrames; i++ {
			r.se()
		}
	}

	r.ue()    // max_num_ref_frames
	r.bits(1) // gaps_in_frame_num_value_allowed_flag

	picWidthInMbsMinus1 := r.ue()
	picHeightInMapUnitsMinus1 := r.ue()
	info.Width = int(picWidthInMbsMinus1+1) * 16
	info.Height = int(picHeightInMapUnitsMinus1+1) * 16

	frameMbsOnly := r.bits(1)
	if frameMbsOnly == 0 {
		r.bits(1) // mb_adaptive_frame_field_flag
	}
	r.bits(1) // direct_8x8_inference_flag

	if r.bits(1) == 1 { // frame_cropping_flag
		left := r.ue()
		right := r.ue()
		top := r.ue()
		bottom := r.ue()
		cropX := 2
		cropY := 2 * (2 - int(frameMbsOnly))
		info.Width -= cropX * int(left+right)
		info.Height -= cropY * int(top+bottom)
	}

	info.Valid = true
	return info
}

// GetResolution is a convenience wrapper returning just width/height.
func GetResolution(sps []byte) (width, height int, ok bool) {
	info := ParseSPS(sps)
	if !info.Valid {
		return 0, 0, false
	}
	return info.Width, info.Height, true
}

// ProfileName maps a profile_idc to its common name.
func ProfileName(profileIDC int) string {
	switch profileIDC {
	case 66:
		return "Baseline"
	case 77:
		return "Main"
	case 88:
		return "Extended"
	case 100:
		return "High"
	case 110:
		return "High 10"
	case 122:
		return "High 4:2:2"
	case 244:
		return "High 4:4:4 Predictive"
	default:
		return fmt.Sprintf("Unknown(%d)", profileIDC)
	}
}

// LevelString maps a level_idc to its dotted level string (e.g. "4.1").
func LevelString(levelIDC int) string {
	return fmt.Sprintf("%d.%d", levelIDC/10, levelIDC%10)
}
