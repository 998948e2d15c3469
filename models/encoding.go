package models

import (
	"errors"
	"fmt"
	"math/big"
)

// Result ciphertexts carry several 64-bit slots packed into one plaintext:
//
//	slot 0:   header  = tag<<48 | version<<40 | count<<32 | margin
//	slot j+1: offset + value_j, one per threshold
//
// Every slot value stays in (0, 2^64) so slots never carry into each other.
const (
	SlotBits        = 64
	EncodingVersion = 1

	LevelTag      = 0x4C56
	ConfidenceTag = 0x4346

	// DirectLimit bounds results that are plain integers rather than packed
	// slots.
	DirectLimit = 1 << 16

	MaxConfidence = 100
	MinConfidence = 50
)

var (
	slotOffset = new(big.Int).Lsh(big.NewInt(1), SlotBits-2)
	slotMask   = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), SlotBits), big.NewInt(1))

	errBadEncoding = errors.New("unrecognised result encoding")
)

// SlotOffset is added to every slot value so negative differences stay
// positive.
func SlotOffset() *big.Int {
	return new(big.Int).Set(slotOffset)
}

// SlotShift returns the multiplier that moves a value into data slot j.
func SlotShift(j int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(SlotBits*(j+1)))
}

// PackedBits is the plaintext width needed for count data slots.
func PackedBits(count int) int {
	return SlotBits * (count + 1)
}

func header(tag int64, count int, margin int64) *big.Int {
	h := new(big.Int).Lsh(big.NewInt(tag), 48)
	h.Or(h, new(big.Int).Lsh(big.NewInt(EncodingVersion), 40))
	h.Or(h, new(big.Int).Lsh(big.NewInt(int64(count)), 32))
	h.Or(h, big.NewInt(margin&0xFFFFFFFF))
	return h
}

// LevelHeader is the header slot of a packed level result.
func LevelHeader(count int) *big.Int {
	return header(LevelTag, count, 0)
}

// ConfidenceHeader is the header slot of a packed confidence result.
func ConfidenceHeader(count int, margin int64) *big.Int {
	return header(ConfidenceTag, count, margin)
}

type packed struct {
	count  int
	margin int64
	slots  []*big.Int
}

func unpack(v *big.Int, tag int64) (*packed, error) {
	if v.Sign() < 0 {
		return nil, errBadEncoding
	}
	h := new(big.Int).And(v, slotMask).Uint64()
	if int64(h>>48) != tag || (h>>40)&0xFF != EncodingVersion {
		return nil, errBadEncoding
	}
	count := int((h >> 32) & 0xFF)
	if count == 0 || v.BitLen() > PackedBits(count) {
		return nil, errBadEncoding
	}
	p := &packed{count: count, margin: int64(h & 0xFFFFFFFF), slots: make([]*big.Int, count)}
	for j := 0; j < count; j++ {
		s := new(big.Int).Rsh(v, uint(SlotBits*(j+1)))
		p.slots[j] = s.And(s, slotMask)
	}
	return p, nil
}

// DecodeLevel recovers the band index from a decrypted level result: the
// number of thresholds the score exceeds. Small plain integers are taken
// as the level itself.
func DecodeLevel(v *big.Int) (int, error) {
	if v.Sign() >= 0 && v.Cmp(big.NewInt(DirectLimit)) < 0 {
		return int(v.Int64()), nil
	}
	p, err := unpack(v, LevelTag)
	if err != nil {
		return -1, fmt.Errorf("decode level: %w", err)
	}
	level := 0
	for _, s := range p.slots {
		if s.Cmp(slotOffset) > 0 {
			level++
		}
	}
	return level, nil
}

// DecodeConfidence recovers the confidence score in [0,100] from a
// decrypted confidence result. The packed form holds the distances to each
// threshold; the score grows linearly with the nearest distance from 50 at
// a boundary to 100 at the margin.
func DecodeConfidence(v *big.Int) (int, error) {
	if v.Sign() >= 0 && v.Cmp(big.NewInt(DirectLimit)) < 0 {
		c := int(v.Int64())
		if c > MaxConfidence {
			return 0, fmt.Errorf("decode confidence: %d out of range", c)
		}
		return c, nil
	}
	p, err := unpack(v, ConfidenceTag)
	if err != nil {
		return 0, fmt.Errorf("decode confidence: %w", err)
	}
	if p.margin <= 0 {
		return 0, fmt.Errorf("decode confidence: %w", errBadEncoding)
	}
	var nearest *big.Int
	for _, s := range p.slots {
		d := new(big.Int).Sub(s, slotOffset)
		d.Abs(d)
		if nearest == nil || d.Cmp(nearest) < 0 {
			nearest = d
		}
	}
	return ConfidenceFromDistance(nearest, p.margin), nil
}

// ConfidenceFromDistance maps a distance to the nearest threshold onto
// [MinConfidence, MaxConfidence], rounding half up.
func ConfidenceFromDistance(distance *big.Int, margin int64) int {
	d := margin
	if distance.IsInt64() && distance.Int64() < margin {
		d = distance.Int64()
	}
	span := int64(MaxConfidence - MinConfidence)
	return MinConfidence + int((2*span*d+margin)/(2*margin))
}
