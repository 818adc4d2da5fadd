// Package adts parses ADTS (Audio Data Transport Stream) framed AAC audio:
// header validation, per-frame enumeration, and stream-level metadata
// (sample rate, channel count, profile, duration, bitrate).
package adts

import "fmt"

// HeaderSize is the length of an ADTS header without the optional CRC.
const HeaderSize = 7

// SamplesPerFrame is the number of PCM samples per AAC-LC frame.
const SamplesPerFrame = 1024

// samplingFrequencies is the ADTS sampling_frequency_index lookup table
// (ISO/IEC 13818-7). Indexes 13-15 are reserved/escape and map to 0.
var samplingFrequencies = [16]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000, 7350, 0, 0, 0,
}

// SamplingFrequency returns the sample rate in Hz for a sampling-frequency
// index, or 0 if the index is reserved/invalid.
func SamplingFrequency(index uint8) int {
	if index > 15 {
		return 0
	}
	return samplingFrequencies[index]
}

// Header is a decoded 7-byte ADTS header.
type Header struct {
	MPEGVersion          uint8 // 0 = MPEG-4, 1 = MPEG-2
	Profile              uint8 // 0=Main, 1=LC, 2=SSR, 3=reserved (LTP in MPEG-4 context)
	SamplingFrequencyIdx uint8
	ChannelConfig        uint8
	FrameLength          int // total frame length including the 7-byte header
}

// ProfileName maps an ADTS profile value to its common name.
func ProfileName(profile uint8) string {
	switch profile {
	case 0:
		return "Main"
	case 1:
		return "LC"
	case 2:
		return "SSR"
	case 3:
		return "LTP"
	default:
		return fmt.Sprintf("Unknown(%d)", profile)
	}
}

// ParseHeader decodes a 7-byte ADTS header from data. Returns an error if
// the sync word or layer field is invalid, or the declared frame length is
// out of the 7..8192 byte range.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("adts: need %d header bytes, got %d", HeaderSize, len(data))
	}

	syncWord := (uint16(data[0]) << 4) | uint16(data[1]>>4)
	if syncWord != 0xFFF {
		return Header{}, fmt.Errorf("adts: bad sync word 0x%03x", syncWord)
	}

	mpegVersion := (data[1] >> 3) & 0x1
	layer := (data[1] >> 1) & 0x3
	if layer != 0 {
		return Header{}, fmt.Errorf("adts: layer must be 0, got %d", layer)
	}
	profile := (data[2] >> 6) & 0x3
	samplingIdx := (data[2] >> 2) & 0xF
	channelConfig := ((data[2] & 0x1) << 2) | (data[3] >> 6)

	frameLength := (int(data[3]&0x3) << 11) | (int(data[4]) << 3) | int(data[5]>>5)
	if frameLength < HeaderSize || frameLength > 8192 {
		return Header{}, fmt.Errorf("adts: invalid frame length %d", frameLength)
	}

	return Header{
		MPEGVersion:          mpegVersion,
		Profile:              profile,
		SamplingFrequencyIdx: samplingIdx,
		ChannelConfig:        channelConfig,
		FrameLength:          frameLength,
	}, nil
}

// FindSyncWord returns the offset of the next ADTS sync word (0xFFF, top 12
// bits) at or after offset, or -1 if none is found.
func FindSyncWord(data []byte, offset int) int {
	if offset < 0 {
		offset = 0
	}
	for i := offset; i+1 < len(data); i++ {
		if data[i] == 0xFF && (data[i+1]&0xF0) == 0xF0 {
			return i
		}
	}
	return -1
}
