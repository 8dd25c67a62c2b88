package formats

import (
	"fmt"
	"strconv"
	"strings"
)

// Floats is a whitespace separated list of floats, as found in
// <float_array>, <translate>, <position> and friends.
type Floats []float32

// UnmarshalText parses the list with a locale independent number format.
func (f *Floats) UnmarshalText(text []byte) error {
	fields := strings.Fields(string(text))
	out := make(Floats, 0, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return fmt.Errorf("%w: float[%d] %q", ErrMalformedArray, i, field)
		}
		out = append(out, float32(v))
	}
	*f = out
	return nil
}

// Ints is a whitespace separated list of integers (<p>, <vcount>).
type Ints []int

// UnmarshalText parses the list.
func (n *Ints) UnmarshalText(text []byte) error {
	fields := strings.Fields(string(text))
	out := make(Ints, 0, len(fields))
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return fmt.Errorf("%w: int[%d] %q", ErrMalformedArray, i, field)
		}
		out = append(out, v)
	}
	*n = out
	return nil
}

// Bools is a whitespace separated list of flags written as 1/0 or true/false.
type Bools []bool

// UnmarshalText parses the list.
func (b *Bools) UnmarshalText(text []byte) error {
	fields := strings.Fields(string(text))
	out := make(Bools, 0, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseBool(field)
		if err != nil {
			return fmt.Errorf("%w: bool[%d] %q", ErrMalformedArray, i, field)
		}
		out = append(out, v)
	}
	*b = out
	return nil
}
