package audio

import (
	"bytes"
	"encoding/binary"
)

// EncodeWAV wraps float32 samples in a minimal 16-bit mono PCM WAV container.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	pcm := Float32ToInt16(samples)
	dataSize := len(pcm) * 2

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range pcm {
		binary.Write(buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}
