package geom

import (
	"math"
	"testing"
)

func TestParseHex(t *testing.T) {
	fallback := RGB{R: 1, G: 2, B: 3}
	if got := ParseHex("#5ac8ff", fallback); got != (RGB{R: 0x5a, G: 0xc8, B: 0xff}) {
		t.Fatalf("ParseHex=%v", got)
	}
	if got := ParseHex("5ac8ff", fallback); got != (RGB{R: 0x5a, G: 0xc8, B: 0xff}) {
		t.Fatalf("unprefixed ParseHex=%v", got)
	}
	for _, bad := range []string{"", "#fff", "#zzzzzz", "#12345", "not a color"} {
		if got := ParseHex(bad, fallback); got != fallback {
			t.Fatalf("ParseHex(%q)=%v, want fallback", bad, got)
		}
		if IsHex(bad) {
			t.Fatalf("IsHex(%q)=true", bad)
		}
	}
}

func TestNormDegenerate(t *testing.T) {
	if got := (Vec2{}).Norm(); got != (Vec2{}) {
		t.Fatalf("Norm of zero vector = %v", got)
	}
	n := Vec2{X: 3, Y: 4}.Norm()
	if math.Abs(n.Len()-1) > 1e-12 {
		t.Fatalf("unit length = %f", n.Len())
	}
}

func TestHSVPrimaries(t *testing.T) {
	if got := HSV(0, 1, 1); got.R != 255 || got.G != 0 || got.B != 0 {
		t.Fatalf("hue 0 = %v, want red", got)
	}
	if got := HSV(1.0/3.0, 1, 1); got.G != 255 || got.R != 0 {
		t.Fatalf("hue 1/3 = %v, want green", got)
	}
	if got := HSV(0.5, 0, 0.5); got.R != got.G || got.G != got.B {
		t.Fatalf("zero saturation not gray: %v", got)
	}
}

func TestSafeFloat(t *testing.T) {
	if got := SafeFloat(math.NaN(), 7); got != 7 {
		t.Fatalf("NaN -> %f", got)
	}
	if got := SafeFloat(math.Inf(1), 7); got != 7 {
		t.Fatalf("+Inf -> %f", got)
	}
	if got := SafeFloat(2.5, 7); got != 2.5 {
		t.Fatalf("finite value replaced: %f", got)
	}
}
