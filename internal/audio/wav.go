// Package audio accumulates raw encoded audio frames from a live media
// stream into fixed-size batches and packages them into a WAV container for
// batch transcription.
package audio

import "encoding/binary"

// Encoding identifies the raw audio encoding carried by a media stream.
type Encoding string

const (
	// EncodingPCM16 is 16-bit signed little-endian linear PCM.
	EncodingPCM16 Encoding = "pcm16"

	// EncodingMulaw is 8-bit G.711 μ-law, the encoding used by telephony
	// media streams (8 kHz mono).
	EncodingMulaw Encoding = "mulaw"
)

// IsValid reports whether e is a recognised encoding.
func (e Encoding) IsValid() bool {
	return e == EncodingPCM16 || e == EncodingMulaw
}

// wavFormatCode returns the RIFF audio format code for the encoding.
func (e Encoding) wavFormatCode() uint16 {
	if e == EncodingMulaw {
		return 7 // G.711 μ-law
	}
	return 1 // linear PCM
}

// bitsPerSample returns the sample width in bits for the encoding.
func (e Encoding) bitsPerSample() int {
	if e == EncodingMulaw {
		return 8
	}
	return 16
}

// Format describes the stream's audio encoding. The header fields written by
// [EncodeWAV] must match the actual encoding of the raw bytes; a mismatch
// silently corrupts downstream decode rather than failing loudly.
type Format struct {
	// Encoding is the raw byte encoding.
	Encoding Encoding

	// SampleRate is the sample rate in Hz (8000 for telephony μ-law).
	SampleRate int

	// Channels is the channel count (1 for telephony streams).
	Channels int
}

// DefaultFormat is the telephony media-stream format: 8 kHz mono μ-law.
var DefaultFormat = Format{Encoding: EncodingMulaw, SampleRate: 8000, Channels: 1}

// wavHeaderSize is the length of the RIFF/WAV header written by [EncodeWAV].
const wavHeaderSize = 44

// EncodeWAV wraps raw audio bytes in a standard RIFF/WAV container using the
// given format. The data-size field of the returned payload always equals
// len(raw).
func EncodeWAV(raw []byte, f Format) []byte {
	bps := f.Encoding.bitsPerSample()
	byteRate := f.SampleRate * f.Channels * bps / 8
	blockAlign := f.Channels * bps / 8
	dataSize := len(raw)

	buf := make([]byte, wavHeaderSize+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], f.Encoding.wavFormatCode())
	binary.LittleEndian.PutUint16(buf[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bps))

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], raw)

	return buf
}
