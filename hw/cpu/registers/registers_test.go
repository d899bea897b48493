package registers_test

import (
	"testing"

	"github.com/ZacGeurts/acornarc-AI/hw/cpu/registers"
)

func TestResetZeroesAndSetsMode(t *testing.T) {
	f := registers.NewFile()
	f.Set(3, 0xAAAA)
	f.SetPC(0x1000)
	f.Reset()

	if got := f.Get(3); got != 0 {
		t.Errorf("expected R3 to be zeroed, got %#x", got)
	}
	if got := f.PC(); got != 0 {
		t.Errorf("expected PC to be zeroed, got %#x", got)
	}
	if f.CPSR.Mode != registers.SVC {
		t.Errorf("expected reset mode SVC, got %s", f.CPSR.Mode)
	}
	if !f.CPSR.I || !f.CPSR.F {
		t.Errorf("expected reset to disable IRQ and FIQ")
	}
}

func TestLowRegistersAreNeverBanked(t *testing.T) {
	f := registers.NewFile()
	f.Set(5, 0x1234)

	f.CPSR.Mode = registers.FIQ
	if got := f.Get(5); got != 0x1234 {
		t.Errorf("R0-R7 must not bank across modes, got %#x", got)
	}
}

func TestMidRegistersBankOnlyUnderFIQ(t *testing.T) {
	f := registers.NewFile()

	f.CPSR.Mode = registers.User
	f.Set(10, 0x1111)

	f.CPSR.Mode = registers.IRQ
	if got := f.Get(10); got != 0x1111 {
		t.Errorf("R8-R12 should be shared between User and IRQ, got %#x", got)
	}

	f.CPSR.Mode = registers.FIQ
	f.Set(10, 0x2222)
	if got := f.Get(10); got != 0x2222 {
		t.Errorf("expected FIQ-banked value, got %#x", got)
	}

	f.CPSR.Mode = registers.User
	if got := f.Get(10); got != 0x1111 {
		t.Errorf("returning to User should expose the unbanked value again, got %#x", got)
	}
}

func TestR13AndR14BankPerMode(t *testing.T) {
	f := registers.NewFile()

	f.CPSR.Mode = registers.SVC
	f.Set(13, 0x5000)
	f.Set(14, 0x6000)

	f.CPSR.Mode = registers.IRQ
	f.Set(13, 0x7000)
	f.Set(14, 0x8000)

	f.CPSR.Mode = registers.SVC
	if got := f.Get(13); got != 0x5000 {
		t.Errorf("expected SVC-banked R13, got %#x", got)
	}
	if got := f.Get(14); got != 0x6000 {
		t.Errorf("expected SVC-banked R14, got %#x", got)
	}

	f.CPSR.Mode = registers.IRQ
	if got := f.Get(13); got != 0x7000 {
		t.Errorf("expected IRQ-banked R13, got %#x", got)
	}
}

func TestPSREncodeRoundTrip(t *testing.T) {
	p := registers.PSR{N: true, C: true, F: true, Mode: registers.IRQ}
	got := registers.Decode(p.Encode())
	if got != p {
		t.Errorf("expected round trip, got %+v want %+v", got, p)
	}
}

func TestSPSRBankedByMode(t *testing.T) {
	f := registers.NewFile()

	f.CPSR.Mode = registers.SVC
	f.SetSPSR(registers.PSR{N: true, Mode: registers.User})

	f.CPSR.Mode = registers.IRQ
	f.SetSPSR(registers.PSR{Z: true, Mode: registers.User})

	if got := f.SPSRFor(registers.SVC); !got.N {
		t.Errorf("expected SVC SPSR to retain N flag, got %+v", got)
	}
	if got := f.SPSRFor(registers.IRQ); !got.Z {
		t.Errorf("expected IRQ SPSR to retain Z flag, got %+v", got)
	}
}
