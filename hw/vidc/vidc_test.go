package vidc_test

import (
	"testing"

	"github.com/ZacGeurts/acornarc-AI/hw/ioc"
	"github.com/ZacGeurts/acornarc-AI/hw/vidc"
)

func newDisplay(t *testing.T, width, height uint32) (*vidc.VIDC, *ioc.IOC) {
	t.Helper()
	i := ioc.New()
	v := vidc.New(i)

	const hBase, vBase = 260, 267
	v.WriteRegister(hBase+3, 0)     // h display start
	v.WriteRegister(hBase+4, width) // h display end
	v.WriteRegister(vBase+3, 0)
	v.WriteRegister(vBase+4, height)
	return v, i
}

func TestPaletteWriteIsMaskedTo13Bits(t *testing.T) {
	v, _ := newDisplay(t, 2, 2)
	v.WriteRegister(1, 0xFFFFFFFF)
	if got := v.ReadRegister(1); got != 0x1FFF {
		t.Errorf("expected palette write masked to 13 bits, got %#x", got)
	}
}

func TestDisplayRegistersRecomputeDimensions(t *testing.T) {
	v, _ := newDisplay(t, 4, 3)
	w, h := v.Dimensions()
	if w != 4 || h != 3 {
		t.Errorf("expected derived dimensions 4x3, got %dx%d", w, h)
	}
}

func TestControlReadReflectsVFLYShadow(t *testing.T) {
	v, i := newDisplay(t, 2, 2)
	if got := v.ReadRegister(0); got&(1<<3) != 0 {
		t.Fatalf("expected no VFLY shadow before any flyback")
	}
	i.AssertVFLY()
	if got := v.ReadRegister(0); got&(1<<3) == 0 {
		t.Errorf("expected control read OR'd with VFLY pending bit")
	}
}

func TestRenderFrameScansPaletteAndAssertsVFLY(t *testing.T) {
	v, i := newDisplay(t, 2, 1)
	v.WriteRegister(1, 0x001) // palette[0]
	v.WriteRegister(2, 0x1F0)
	v.WriteRegister(276, 0) // video base = RAM base

	ram := []byte{0, 1, 9, 9}
	out := v.RenderFrame(ram)

	if len(out) != 2*1*2 {
		t.Fatalf("expected a 2x1 16bpp buffer, got %d bytes", len(out))
	}
	if !i.VFLYRequested() {
		t.Errorf("expected VFLY asserted after scan-out")
	}
}

func TestRenderFrameWithZeroDimensionsIsNoop(t *testing.T) {
	i := ioc.New()
	v := vidc.New(i)
	if out := v.RenderFrame(nil); out != nil {
		t.Errorf("expected nil frame when no display region is configured")
	}
	if !i.VFLYRequested() {
		t.Errorf("expected VFLY still asserted even on an empty frame")
	}
}
