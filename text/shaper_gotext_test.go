package text

import (
	"testing"

	"github.com/go-text/typesetting/di"
)

func TestMapDirection(t *testing.T) {
	cases := map[Direction]di.Direction{
		DirectionLTR: di.DirectionLTR,
		DirectionRTL: di.DirectionRTL,
		DirectionTTB: di.DirectionTTB,
		DirectionBTT: di.DirectionBTT,
	}
	for in, want := range cases {
		if got := mapDirection(in); got != want {
			t.Errorf("mapDirection(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestDetectScriptSkipsWhitespace(t *testing.T) {
	got := detectScript([]rune("   A"))
	want := detectScript([]rune("A"))
	if got != want {
		t.Fatalf("detectScript disagreed across leading whitespace: %v vs %v", got, want)
	}
}

func TestFixedRoundTrip(t *testing.T) {
	for _, size := range []float64{8, 12.5, 16, 32.25} {
		got := fixedToFloat(floatToFixed(size))
		if got != size {
			t.Errorf("fixedToFloat(floatToFixed(%v)) = %v", size, got)
		}
	}
}

func TestShapeEmptyRunReturnsNil(t *testing.T) {
	s := NewGoTextShaper()
	face := NewFace(NewFontSource([]byte("not a real font"), 1), 16, DirectionLTR)
	if got := s.Shape("", face); got != nil {
		t.Fatalf("Shape(\"\", face) = %v, want nil", got)
	}
	if got := s.Shape("x", nil); got != nil {
		t.Fatalf("Shape(\"x\", nil) = %v, want nil", got)
	}
}

func TestShapeInvalidFontDataReturnsNil(t *testing.T) {
	s := NewGoTextShaper()
	face := NewFace(NewFontSource([]byte("not a real font"), 1), 16, DirectionLTR)
	if got := s.Shape("hello", face); got != nil {
		t.Fatalf("Shape with unparseable font data = %v, want nil", got)
	}
}

func TestGetOrCreateFontSkipsCacheOnParseError(t *testing.T) {
	s := NewGoTextShaper()
	source := NewFontSource([]byte("garbage"), 1)
	if _, err := s.getOrCreateFont(source); err == nil {
		t.Fatal("expected parse error for garbage font data")
	}
	if len(s.fontCache) != 0 {
		t.Fatal("a failed parse must not populate the font cache")
	}
}

func TestSetShaperDefaultsToGoText(t *testing.T) {
	SetShaper(nil)
	if _, ok := GetShaper().(*GoTextShaper); !ok {
		t.Fatalf("GetShaper() after SetShaper(nil) = %T, want *GoTextShaper", GetShaper())
	}
}
