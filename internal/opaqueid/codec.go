// Package opaqueid provides a reversible, keyed encoding of internal integer
// row identifiers into externally-safe opaque strings.
//
// The encoding (hashids) prevents casual enumeration of sequential IDs; it is
// NOT cryptographically strong obfuscation and must never stand in for
// authorization. Every lookup of a decoded ID still has to be scoped by the
// authenticated caller's ownership.
package opaqueid

import (
	hashids "github.com/speps/go-hashids/v2"

	apperrors "github.com/capsulen/capsulen/internal/errors"
)

// ErrInvalidOpaqueID indicates a client-supplied identifier could not be
// decoded. Callers treat it as "no such resource", never as a server error.
var ErrInvalidOpaqueID = apperrors.WithKey(
	apperrors.Wrap(apperrors.ErrNotFound, "invalid opaque identifier"),
	"NOT_FOUND",
)

// Codec encodes and decodes integer identifiers under a server-held secret.
// The same secret must be used across the process fleet, or identifiers
// handed to clients stop resolving.
type Codec struct {
	h *hashids.HashID
}

// NewCodec creates a Codec seeded by the given secret. minLength pads encoded
// identifiers to at least that many characters.
func NewCodec(secret string, minLength int) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = secret
	data.MinLength = minLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to initialize opaque id codec")
	}

	return &Codec{h: h}, nil
}

// Encode converts a non-negative integer identifier into an opaque string.
// Distinct integers always yield distinct strings under the same secret.
func (c *Codec) Encode(id int64) (string, error) {
	if id < 0 {
		return "", ErrInvalidOpaqueID
	}

	encoded, err := c.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode opaque id")
	}

	return encoded, nil
}

// Decode recovers the integer identifier from an opaque string.
//
// Strings not produced by Encode under the same secret fail with
// ErrInvalidOpaqueID. Decoding re-encodes the candidate and compares, since
// the underlying transform accepts some foreign inputs.
func (c *Codec) Decode(opaque string) (int64, error) {
	ids, err := c.h.DecodeInt64WithError(opaque)
	if err != nil || len(ids) != 1 || ids[0] < 0 {
		return 0, ErrInvalidOpaqueID
	}

	reencoded, err := c.h.EncodeInt64(ids)
	if err != nil || reencoded != opaque {
		return 0, ErrInvalidOpaqueID
	}

	return ids[0], nil
}
