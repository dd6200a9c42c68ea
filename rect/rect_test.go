package rect

import "testing"

func TestSplitTopUnion(t *testing.T) {
	r := Rect{Pos: Vec2{0, 0}, Size: Vec2{100, 50}}
	orig := r
	top := SplitTopOf(&r, 20)

	if top.Pos != orig.Pos {
		t.Errorf("top.Pos = %v, want %v", top.Pos, orig.Pos)
	}
	if top.Size.Y != 20 {
		t.Errorf("top.Size.Y = %v, want 20", top.Size.Y)
	}
	if r.Size.Y != 30 {
		t.Errorf("bottom.Size.Y = %v, want 30", r.Size.Y)
	}
	if top.Size.Y+r.Size.Y != orig.Size.Y {
		t.Errorf("split halves don't sum to original height: %v + %v != %v", top.Size.Y, r.Size.Y, orig.Size.Y)
	}
}

func TestSplitLeftUnion(t *testing.T) {
	r := Rect{Pos: Vec2{0, 0}, Size: Vec2{100, 50}}
	orig := r
	left := SplitLeftOf(&r, 30)

	if left.Size.X+r.Size.X != orig.Size.X {
		t.Errorf("split halves don't sum to original width: %v + %v != %v", left.Size.X, r.Size.X, orig.Size.X)
	}
	if r.Pos.X != 30 {
		t.Errorf("remainder.Pos.X = %v, want 30", r.Pos.X)
	}
}

func TestInsetOutsetRoundTrip(t *testing.T) {
	r := Rect{Pos: Vec2{10, 10}, Size: Vec2{80, 40}}
	margin := Vec2{5, 5}

	got := r.Inset(margin).Outset(margin)
	if got != r {
		t.Errorf("Inset(m).Outset(m) = %v, want %v", got, r)
	}
}

func TestIsPointInside(t *testing.T) {
	r := Rect{Pos: Vec2{0, 0}, Size: Vec2{100, 30}}
	cases := []struct {
		p    Vec2
		want bool
	}{
		{Vec2{50, 15}, true},
		{Vec2{0, 0}, true},
		{Vec2{100, 30}, true},
		{Vec2{101, 15}, false},
		{Vec2{-1, 15}, false},
	}
	for _, c := range cases {
		if got := r.IsPointInside(c.p); got != c.want {
			t.Errorf("IsPointInside(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}
