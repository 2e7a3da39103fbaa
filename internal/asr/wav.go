package asr

import (
	"encoding/binary"
	"fmt"
)

// decodeWAV extracts normalized float32 samples from a 16-bit PCM WAV
// payload, the format whisper.cpp expects (16 kHz mono). Stereo input
// is downmixed by averaging channels.
func decodeWAV(data []byte) ([]float32, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("audio is not a RIFF/WAVE file")
	}

	var (
		channels      uint16
		bitsPerSample uint16
		pcm           []byte
	)
	// Walk the chunk list; fmt describes the encoding, data holds samples.
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			return nil, fmt.Errorf("truncated %q chunk", id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("malformed fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("unsupported WAV format %d, need PCM", format)
			}
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
		case "data":
			pcm = data[body : body+size]
		}
		// Chunks are word aligned.
		off = body + size + size%2
	}

	if pcm == nil {
		return nil, fmt.Errorf("missing data chunk")
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported sample width %d bits, need 16", bitsPerSample)
	}
	if channels == 0 {
		return nil, fmt.Errorf("missing fmt chunk")
	}

	frame := int(channels) * 2
	samples := make([]float32, 0, len(pcm)/frame)
	for i := 0; i+frame <= len(pcm); i += frame {
		var sum int32
		for ch := 0; ch < int(channels); ch++ {
			sum += int32(int16(binary.LittleEndian.Uint16(pcm[i+ch*2 : i+ch*2+2])))
		}
		samples = append(samples, float32(sum)/float32(channels)/32768)
	}
	return samples, nil
}
