package types

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Bytes is a byte quantity that reads and prints in human form ("10 MB").
type Bytes uint64

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bytes) UnmarshalText(data []byte) error {
	return b.Set(string(data))
}

func (b Bytes) String() string {
	return humanize.Bytes(uint64(b))
}

func (b *Bytes) UnmarshalYAML(unmarshal func(any) error) error {
	// Plain integers are taken as a byte count
	var num uint64
	if err := unmarshal(&num); err == nil {
		*b = Bytes(num)
		return nil
	}

	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}

	value, err := humanize.ParseBytes(raw)
	if err != nil {
		return fmt.Errorf("invalid byte string %q: %w", raw, err)
	}

	*b = Bytes(value)

	return nil
}

func (b Bytes) MarshalYAML() (any, error) {
	return b.String(), nil
}

func (b Bytes) Bytes() uint64 {
	return uint64(b)
}

func (b Bytes) Int64() int64 {
	return int64(b)
}

func (b *Bytes) Set(value string) error {
	parsed, err := humanize.ParseBytes(value)
	if err != nil {
		return err
	}
	*b = Bytes(parsed)
	return nil
}
