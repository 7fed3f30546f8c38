package nrfgoprog

import (
	"github.com/pkg/errors"
)

// Segment is a contiguous run of firmware bytes at a fixed memory address,
// as decomposed from an image file.
type Segment struct {
	Address uint32
	Data    []byte
}

// erasedFlash is what erased NOR flash reads as.
const erasedFlash = 0xFF

// checkErased verifies that the segment's destination range reads as erased
// flash. Programming can only clear bits, so writing over non-erased flash
// would silently AND the old and new contents together.
func checkErased(p Probe, seg Segment) error {
	read, err := p.Read(seg.Address, len(seg.Data))
	if err != nil {
		return errors.Wrapf(err, "read back 0x%08X", seg.Address)
	}
	for i, b := range read {
		if b != erasedFlash {
			return &NotErasedError{Address: seg.Address, Offset: i, Value: b}
		}
	}
	return nil
}

// compareSegment reads the segment's range back and compares it byte for
// byte against the segment's data.
func compareSegment(p Probe, seg Segment) error {
	read, err := p.Read(seg.Address, len(seg.Data))
	if err != nil {
		return errors.Wrapf(err, "read back 0x%08X", seg.Address)
	}
	for i := range seg.Data {
		if read[i] != seg.Data[i] {
			return &VerificationError{
				Address:  seg.Address + uint32(i),
				Expected: seg.Data[i],
				Actual:   read[i],
			}
		}
	}
	return nil
}

// Program writes the image segments to the target's flash, in order. Each
// segment's destination range must read as erased before it is written;
// a non-erased range fails the whole operation before any byte of that
// segment is transferred. If verify is set, each segment is read back and
// compared after writing.
//
// A failed write or verify is not rolled back; the flash is left as the
// partial programming run left it.
func Program(s *Session, segments []Segment, verify bool) error {
	for _, seg := range segments {
		if err := checkErased(s.probe, seg); err != nil {
			return err
		}
		pkgLog.Debugf("writing %d bytes at 0x%08X", len(seg.Data), seg.Address)
		if err := s.probe.Write(seg.Address, seg.Data, true); err != nil {
			return errors.Wrapf(err, "write segment at 0x%08X", seg.Address)
		}
		if verify {
			if err := compareSegment(s.probe, seg); err != nil {
				return err
			}
		}
	}
	return nil
}

// VerifyOnly checks that the target's memory already contains every
// segment's data, without writing anything.
func VerifyOnly(s *Session, segments []Segment) error {
	for _, seg := range segments {
		pkgLog.Debugf("verifying %d bytes at 0x%08X", len(seg.Data), seg.Address)
		if err := compareSegment(s.probe, seg); err != nil {
			return err
		}
	}
	return nil
}
