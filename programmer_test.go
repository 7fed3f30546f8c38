package nrfgoprog

import (
	"errors"
	"strings"
	"testing"
)

func testSession(probe *fakeProbe) *Session {
	return &Session{probe: probe, family: probe.family}
}

func TestProgramWritesErasedSegments(t *testing.T) {
	probe := newFakeProbe(FamilyNRF52)
	segments := []Segment{
		{Address: 0x18000, Data: []byte{0x01, 0x02, 0x03, 0x04}},
		{Address: 0x19000, Data: []byte{0xAA, 0xBB}},
	}

	if err := Program(testSession(probe), segments, false); err != nil {
		t.Fatalf("Program failed: %v", err)
	}
	if probe.count("write 0x18000 len 4 flash=true") != 1 {
		t.Errorf("expected one flash write for the first segment, calls: %v", probe.calls)
	}
	if probe.count("write 0x19000 len 2 flash=true") != 1 {
		t.Errorf("expected one flash write for the second segment, calls: %v", probe.calls)
	}
	if probe.mem[0x18002] != 0x03 {
		t.Errorf("expected written data in flash, got 0x%02X", probe.mem[0x18002])
	}
}

func TestProgramFailsWhenNotErased(t *testing.T) {
	probe := newFakeProbe(FamilyNRF52)
	probe.mem[0x18001] = 0x00 // a single programmed byte in the range

	segments := []Segment{
		{Address: 0x18000, Data: []byte{0x01, 0x02, 0x03, 0x04}},
		{Address: 0x19000, Data: []byte{0xAA}},
	}

	err := Program(testSession(probe), segments, false)
	var notErased *NotErasedError
	if !errors.As(err, &notErased) {
		t.Fatalf("expected NotErasedError, got %v", err)
	}
	if notErased.Address != 0x18000 || notErased.Offset != 1 || notErased.Value != 0x00 {
		t.Errorf("unexpected error detail: %+v", notErased)
	}
	// Fail fast: nothing may be written, and no further segments processed.
	for _, c := range probe.calls {
		if strings.HasPrefix(c, "write") {
			t.Errorf("unexpected write call %q", c)
		}
		if strings.Contains(c, "0x19000") {
			t.Errorf("second segment must not be touched, calls: %v", probe.calls)
		}
	}
}

func TestProgramVerifyDetectsMismatch(t *testing.T) {
	probe := newFakeProbe(FamilyNRF52)
	probe.corruptAddr = u32(0x18002)
	probe.corruptValue = 0x7F

	segments := []Segment{{Address: 0x18000, Data: []byte{0xFF, 0xFF, 0x03, 0x04}}}

	err := Program(testSession(probe), segments, true)
	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
	if verr.Address != 0x18002 || verr.Expected != 0x03 || verr.Actual != 0x7F {
		t.Errorf("unexpected error detail: %+v", verr)
	}
}

func TestProgramVerifyRereadsEachSegment(t *testing.T) {
	probe := newFakeProbe(FamilyNRF52)
	segments := []Segment{{Address: 0x20000, Data: []byte{0x10, 0x20}}}

	if err := Program(testSession(probe), segments, true); err != nil {
		t.Fatalf("Program failed: %v", err)
	}
	// One read for the erased check, one for the verify.
	if got := probe.count("read 0x20000 len 2"); got != 2 {
		t.Errorf("expected two reads of the segment range, got %d", got)
	}
}

func TestVerifyOnlyRoundTrip(t *testing.T) {
	probe := newFakeProbe(FamilyNRF52)
	session := testSession(probe)
	segments := []Segment{{Address: 0x18000, Data: []byte{0x01, 0x02, 0x03, 0x04}}}

	if err := Program(session, segments, true); err != nil {
		t.Fatalf("Program failed: %v", err)
	}
	if err := VerifyOnly(session, segments); err != nil {
		t.Errorf("VerifyOnly after a verified program must succeed, got %v", err)
	}
}

func TestVerifyOnlyDoesNotWrite(t *testing.T) {
	probe := newFakeProbe(FamilyNRF52)
	segments := []Segment{{Address: 0x18000, Data: []byte{0xFF, 0xFF}}}

	if err := VerifyOnly(testSession(probe), segments); err != nil {
		t.Fatalf("VerifyOnly failed: %v", err)
	}
	for _, c := range probe.calls {
		if strings.HasPrefix(c, "write") {
			t.Errorf("unexpected write call %q", c)
		}
	}
}

func TestVerifyOnlyReportsMismatch(t *testing.T) {
	probe := newFakeProbe(FamilyNRF52)
	segments := []Segment{{Address: 0x18000, Data: []byte{0x01}}}

	err := VerifyOnly(testSession(probe), segments)
	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
	if verr.Address != 0x18000 || verr.Expected != 0x01 || verr.Actual != 0xFF {
		t.Errorf("unexpected error detail: %+v", verr)
	}
}

func TestUnimplementedOperations(t *testing.T) {
	probe := newFakeProbe(FamilyNRF52)
	session := testSession(probe)

	cases := []struct {
		op  string
		err error
	}{
		{"pinresetenable", PinResetEnable(session)},
		{"sectorserase", SectorsErase(session, nil)},
		{"sectorsanduicrerase", SectorsAndUICRErase(session, nil)},
		{"readtofile", ReadToFile(session, "out.bin", 0, 16)},
	}
	for _, tc := range cases {
		var uerr *UnimplementedError
		if !errors.As(tc.err, &uerr) {
			t.Errorf("%s: expected UnimplementedError, got %v", tc.op, tc.err)
			continue
		}
		if uerr.Op != tc.op {
			t.Errorf("expected op %q, got %q", tc.op, uerr.Op)
		}
	}
	if len(probe.calls) != 0 {
		t.Errorf("unimplemented operations must not touch the probe, calls: %v", probe.calls)
	}
}
