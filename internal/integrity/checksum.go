// Package integrity stamps and verifies tamper-evident digests over game
// state snapshots.
package integrity

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"

	"github.com/samber/oops"
	"golang.org/x/crypto/blake2b"

	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

// CodeViolation marks a state whose stored checksum does not match its
// contents.
const CodeViolation = "INTEGRITY_VIOLATION"

// Checksummer computes keyed BLAKE2b-256 digests over the canonical JSON
// encoding of a state with its checksum field cleared. An empty key yields
// a plain BLAKE2b-256 digest.
type Checksummer struct {
	key []byte
}

func New(key []byte) *Checksummer {
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	return &Checksummer{key: key}
}

// Compute returns the hex digest of s, ignoring s.StateChecksum.
func (c *Checksummer) Compute(s scoundrel.State) (string, error) {
	s.StateChecksum = ""
	data, err := json.Marshal(s)
	if err != nil {
		return "", oops.With("operation", "encode state").Wrap(err)
	}

	h, err := blake2b.New256(c.key)
	if err != nil {
		return "", oops.With("operation", "init digest").Wrap(err)
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Stamp returns s with a freshly computed checksum.
func (c *Checksummer) Stamp(s scoundrel.State) (scoundrel.State, error) {
	sum, err := c.Compute(s)
	if err != nil {
		return s, err
	}
	s.StateChecksum = sum
	return s, nil
}

// Verify recomputes the digest of s and compares it with the stored one.
func (c *Checksummer) Verify(s scoundrel.State) error {
	if s.StateChecksum == "" {
		return oops.Code(CodeViolation).Errorf("state has no checksum")
	}
	sum, err := c.Compute(s)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(sum), []byte(s.StateChecksum)) != 1 {
		return oops.Code(CodeViolation).
			With("sequence", s.LastActionSequence).
			Errorf("state checksum mismatch")
	}
	return nil
}
