package embcache

import (
	"encoding/binary"
	"fmt"
	"math"
)

// entryVersion prefixes every cached vector. Entries written under another
// version are treated as misses and overwritten.
const entryVersion byte = 1

const headerLen = 1 + 4 // version + dimension

// encodeEntry lays out a vector as version | uint32 dim | float32 LE values.
func encodeEntry(v []float32) []byte {
	buf := make([]byte, headerLen+len(v)*4)
	buf[0] = entryVersion
	binary.LittleEndian.PutUint32(buf[1:], uint32(len(v))) //nolint:gosec // embedding dims fit in uint32
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[headerLen+i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEntry(data []byte) ([]float32, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("cache entry too short: %d bytes", len(data))
	}
	if data[0] != entryVersion {
		return nil, fmt.Errorf("cache entry version %d, want %d", data[0], entryVersion)
	}
	dim := int(binary.LittleEndian.Uint32(data[1:]))
	body := data[headerLen:]
	if dim == 0 || len(body) != dim*4 {
		return nil, fmt.Errorf("cache entry holds %d bytes for dim %d", len(body), dim)
	}

	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return vec, nil
}
