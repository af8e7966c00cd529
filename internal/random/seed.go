// Package random provides cryptographic seed generation helpers.
//
// It uses crypto/rand to generate high-entropy seeds suitable for
// initializing the pseudo-random sources that back table draws.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

// SeedSource records where a draw seed came from.
type SeedSource string

const (
	// SeedSourceServer marks a seed generated by the service.
	SeedSourceServer SeedSource = "server"
	// SeedSourceClient marks a seed supplied by the caller for replay.
	SeedSourceClient SeedSource = "client"
)

// ErrMissingGenerator indicates ResolveSeed had no way to produce a seed.
var ErrMissingGenerator = errors.New("seed generator is required")

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// ResolveSeed returns the caller seed when one is supplied, otherwise a fresh
// seed from generate.
func ResolveSeed(requested *int64, generate func() (int64, error)) (int64, SeedSource, error) {
	if requested != nil {
		return *requested, SeedSourceClient, nil
	}
	if generate == nil {
		return 0, "", ErrMissingGenerator
	}
	seed, err := generate()
	if err != nil {
		return 0, "", err
	}
	return seed, SeedSourceServer, nil
}
