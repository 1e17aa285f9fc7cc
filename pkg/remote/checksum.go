package remote

import (
	"fmt"
	"hash"
	"hash/adler32"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Algorithm names a checksum algorithm understood by a Transport.
type Algorithm string

// Adler32 is the rolling checksum used for destination reconciliation.
const Adler32 Algorithm = "ADLER32"

func newHash(alg Algorithm) (hash.Hash32, error) {
	switch Algorithm(strings.ToUpper(string(alg))) {
	case Adler32:
		return adler32.New(), nil
	default:
		return nil, errors.Errorf("unsupported checksum algorithm %q", alg)
	}
}

// FormatSum renders a 32-bit sum as zero-padded lower-case hex.
func FormatSum(sum uint32) string {
	return fmt.Sprintf("%08x", sum)
}
