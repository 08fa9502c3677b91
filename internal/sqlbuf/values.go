package sqlbuf

import (
	"io"
	"time"
)

// Raw is SQL text spliced into a statement verbatim instead of being bound.
type Raw string

func (r Raw) String() string {
	return string(r)
}

// Char is a single character value. It is distinct from rune so that characters and
// 32-bit integers can be told apart when binding.
type Char rune

func (c Char) String() string {
	return string(rune(c))
}

// Stream is a reader with a declared length, staged for a binary or character column.
type Stream struct {
	R      io.Reader
	Length int
	// Chars marks a character stream; otherwise the stream is binary.
	Chars bool
}

// Zoned is a time value bound in a specific location.
type Zoned struct {
	Time time.Time
	Loc  *time.Location
}

// In returns the time converted into its location.
func (z Zoned) In() time.Time {
	if z.Loc == nil {
		return z.Time
	}
	return z.Time.In(z.Loc)
}
