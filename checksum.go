package pinger

// Checksum calculates the Internet checksum (RFC 1071) of b.
//
// If b has an odd length, the last byte is treated as the high half of a
// zero padded 16-bit word.
func Checksum(b []byte) uint16 {
	return ^foldSum(b)
}

// VerifyChecksum reports whether b, with its checksum embedded, sums up to
// one's-complement zero.
func VerifyChecksum(b []byte) bool {
	return foldSum(b) == 0xffff
}

func foldSum(b []byte) uint16 {
	var sum uint32

	for i := 0; i+1 < len(b); i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if len(b)%2 == 1 {
		sum += uint32(b[len(b)-1]) << 8
	}

	for sum > 0xffff {
		sum = (sum >> 16) + (sum & 0xffff)
	}

	return uint16(sum)
}
