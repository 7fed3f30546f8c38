package nrfgoprog

import (
	"errors"
	"testing"
)

func TestRecoverPrimaryPath(t *testing.T) {
	drv := newFakeDriver()
	probe := drv.probes[FamilyNRF51]

	outcome, err := Recover(drv, Options{})
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if outcome.Fallback {
		t.Error("expected the primary path to serve the recover")
	}
	if outcome.Family != FamilyNRF51 {
		t.Errorf("expected %v, got %v", FamilyNRF51, outcome.Family)
	}
	if probe.count("recover") != 1 {
		t.Errorf("expected one recover call, calls: %v", probe.calls)
	}
	if probe.disconnects != 1 || probe.closeCount != 1 {
		t.Errorf("expected one disconnect and one close, got %d/%d", probe.disconnects, probe.closeCount)
	}
}

func TestRecoverFallsBackToNRF52(t *testing.T) {
	drv := newFakeDriver()
	nrf51 := drv.probes[FamilyNRF51]
	nrf52 := drv.probes[FamilyNRF52]
	// An access port protected device cannot complete the version
	// handshake at all.
	nrf51.versionErr = &DriverError{Op: "read device version", Err: errors.New("access port protected")}

	outcome, err := Recover(drv, Options{SerialNumber: u32(683111111)})
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if !outcome.Fallback || outcome.Family != FamilyNRF52 {
		t.Errorf("expected an nRF52 fallback recovery, got %+v", outcome)
	}

	// The fallback must not probe the version or connect to the target.
	if nrf52.count("read device version") != 0 {
		t.Errorf("fallback must not attempt a version query, calls: %v", nrf52.calls)
	}
	if nrf52.count("connect target") != 0 {
		t.Errorf("fallback must not connect to the target, calls: %v", nrf52.calls)
	}
	if nrf52.count("connect probe snr=683111111") != 1 {
		t.Errorf("fallback must reuse the connection parameters, calls: %v", nrf52.calls)
	}
	if nrf52.count("recover") != 1 {
		t.Errorf("expected one recover call, calls: %v", nrf52.calls)
	}
	if nrf52.disconnects != 1 || nrf52.closeCount != 1 {
		t.Errorf("expected one disconnect and one close, got %d/%d", nrf52.disconnects, nrf52.closeCount)
	}

	// The failed primary handle must still have been released.
	if nrf51.closeCount != 1 {
		t.Errorf("expected the nRF51 handle closed exactly once, got %d", nrf51.closeCount)
	}
}

func TestRecoverFallsBackWhenRecoverCallFails(t *testing.T) {
	drv := newFakeDriver()
	nrf51 := drv.probes[FamilyNRF51]
	nrf52 := drv.probes[FamilyNRF52]
	nrf51.recoverErr = errors.New("recover refused")

	outcome, err := Recover(drv, Options{})
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if !outcome.Fallback || outcome.Family != FamilyNRF52 {
		t.Errorf("expected an nRF52 fallback recovery, got %+v", outcome)
	}
	if nrf51.closeCount != 1 {
		t.Errorf("expected the nRF51 handle closed exactly once, got %d", nrf51.closeCount)
	}
	if nrf52.count("recover") != 1 {
		t.Errorf("expected one recover call on the fallback handle, calls: %v", nrf52.calls)
	}
}

func TestRecoverReportsFallbackFailure(t *testing.T) {
	drv := newFakeDriver()
	drv.probes[FamilyNRF51].versionErr = &DriverError{Op: "read device version", Err: errors.New("no response")}
	cause := errors.New("probe gone")
	drv.probes[FamilyNRF52].connectErr = cause

	_, err := Recover(drv, Options{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected the fallback failure to propagate, got %v", err)
	}
	if drv.probes[FamilyNRF52].closeCount != 1 {
		t.Errorf("expected the fallback handle closed exactly once, got %d", drv.probes[FamilyNRF52].closeCount)
	}
}
