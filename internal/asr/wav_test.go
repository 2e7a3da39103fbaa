package asr

import (
	"encoding/binary"
	"math"
	"testing"
)

func buildWAV(t *testing.T, channels uint16, samples []int16) []byte {
	t.Helper()
	dataLen := len(samples) * 2
	buf := make([]byte, 0, 44+dataLen)

	le := binary.LittleEndian
	u32 := func(v uint32) []byte { b := make([]byte, 4); le.PutUint32(b, v); return b }
	u16 := func(v uint16) []byte { b := make([]byte, 2); le.PutUint16(b, v); return b }

	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, u32(uint32(36+dataLen))...)
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = append(buf, u32(16)...)
	buf = append(buf, u16(1)...) // PCM
	buf = append(buf, u16(channels)...)
	buf = append(buf, u32(16000)...)
	buf = append(buf, u32(uint32(16000*int(channels)*2))...)
	buf = append(buf, u16(channels*2)...)
	buf = append(buf, u16(16)...)
	buf = append(buf, []byte("data")...)
	buf = append(buf, u32(uint32(dataLen))...)
	for _, s := range samples {
		buf = append(buf, u16(uint16(s))...)
	}
	return buf
}

func TestDecodeWAVMono(t *testing.T) {
	wav := buildWAV(t, 1, []int16{0, 16384, -16384, 32767})

	samples, err := decodeWAV(wav)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if math.Abs(float64(samples[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, samples[i], want[i])
		}
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	wav := buildWAV(t, 2, []int16{16384, 0, -16384, -16384})

	samples, err := decodeWAV(wav)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if math.Abs(float64(samples[0]-0.25)) > 1e-6 || math.Abs(float64(samples[1]+0.5)) > 1e-6 {
		t.Errorf("downmix = %v", samples)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not riff", []byte("this is definitely not a wave file at all......")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeWAV(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}
