package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Fid identifies an object in the native runtime's namespace.
// It is a 128-bit (container, key) pair rendered as "0x<container>:0x<key>".
type Fid struct {
	Container uint64
	Key       uint64
}

func (f Fid) String() string {
	return fmt.Sprintf("0x%x:0x%x", f.Container, f.Key)
}

// ParseFid parses the canonical "0x<container>:0x<key>" form. The "0x"
// prefix is optional on either half; both halves are hexadecimal.
func ParseFid(s string) (Fid, error) {
	cont, key, ok := strings.Cut(s, ":")
	if !ok {
		return Fid{}, fmt.Errorf("invalid fid %q: expected <container>:<key>", s)
	}

	c, err := strconv.ParseUint(strings.TrimPrefix(cont, "0x"), 16, 64)
	if err != nil {
		return Fid{}, fmt.Errorf("invalid fid container in %q: %w", s, err)
	}
	k, err := strconv.ParseUint(strings.TrimPrefix(key, "0x"), 16, 64)
	if err != nil {
		return Fid{}, fmt.Errorf("invalid fid key in %q: %w", s, err)
	}

	return Fid{Container: c, Key: k}, nil
}

// MarshalJSON renders the fid in its canonical text form so that
// serialized payloads are byte-identical across runs.
func (f Fid) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(f.String())), nil
}

func (f *Fid) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("fid must be a JSON string: %w", err)
	}
	parsed, err := ParseFid(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
