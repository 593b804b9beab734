package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Run identifiers are ULIDs: 26-character Crockford Base32 strings with a
// millisecond timestamp prefix, so run directories sort chronologically and
// concurrent runs never collide (distinct runs must use distinct output
// directories).

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewRunID returns a fresh ULID.
func NewRunID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	// Timestamp in the first 6 bytes (big-endian 48-bit).
	b[0] = byte(ts >> 40)
	b[1] = byte(ts >> 32)
	b[2] = byte(ts >> 24)
	b[3] = byte(ts >> 16)
	b[4] = byte(ts >> 8)
	b[5] = byte(ts)
	// Random in the remaining 10 bytes, with the sequence embedded in
	// bytes 6-7 to keep IDs unique within the same millisecond.
	rand.Read(b[6:])
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encodeBase32(b)
}

// encodeBase32 encodes 128 bits as 26 Crockford Base32 characters by
// consuming the bytes as a big-endian bit stream, most significant group
// first (the leading group holds only 3 bits).
func encodeBase32(b [16]byte) string {
	var out [26]byte
	bitPos := -2 // 130 bit positions cover 26 five-bit groups
	for i := range out {
		var group uint16
		for j := 0; j < 5; j++ {
			group <<= 1
			pos := bitPos + j
			if pos >= 0 && b[pos/8]&(1<<(7-pos%8)) != 0 {
				group |= 1
			}
		}
		out[i] = crockford[group]
		bitPos += 5
	}
	return string(out[:])
}
