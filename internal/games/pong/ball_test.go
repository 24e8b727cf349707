package pong

import "testing"

func TestBallIntegrateInsideField(t *testing.T) {
	b := Ball{X: 100, Y: 100, VX: 3, VY: -3}
	b.Integrate()
	b.Integrate()

	if b.X != 106 || b.Y != 94 {
		t.Errorf("position = (%d,%d), want (106,94)", b.X, b.Y)
	}
	if b.VX != 3 || b.VY != -3 {
		t.Errorf("velocity changed to (%d,%d)", b.VX, b.VY)
	}
	if b.ChangedDirection {
		t.Error("ChangedDirection set without a bounce")
	}
}

func TestBallBounces(t *testing.T) {
	tests := []struct {
		name           string
		ball           Ball
		wantVX, wantVY int32
	}{
		{"right edge", Ball{X: EdgeRight - 1, Y: 100, VX: 3, VY: 3}, -3, 3},
		{"left edge", Ball{X: EdgeLeft + 1, Y: 100, VX: -3, VY: 3}, 3, 3},
		{"top edge", Ball{X: 100, Y: EdgeTop - 1, VX: 3, VY: 3}, 3, -3},
		{"bottom edge", Ball{X: 100, Y: EdgeBottom + 1, VX: 3, VY: -3}, 3, 3},
		{"corner", Ball{X: EdgeRight - 1, Y: EdgeTop - 1, VX: 3, VY: 3}, -3, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.ball
			b.Integrate()
			if b.VX != tt.wantVX || b.VY != tt.wantVY {
				t.Errorf("velocity = (%d,%d), want (%d,%d)", b.VX, b.VY, tt.wantVX, tt.wantVY)
			}
			if !b.ChangedDirection {
				t.Error("ChangedDirection not set on bounce")
			}
		})
	}
}

func TestBallBouncesOncePerCrossing(t *testing.T) {
	b := Ball{X: EdgeRight - 1, Y: 100, VX: 3, VY: 3}
	b.Integrate()
	if b.VX != -3 {
		t.Fatalf("VX = %d after crossing, want -3", b.VX)
	}

	b.Integrate()
	if b.X > EdgeRight {
		t.Fatalf("X = %d, ball should be back inside", b.X)
	}
	if b.VX != -3 || b.ChangedDirection {
		t.Errorf("VX = %d on the way back, want -3", b.VX)
	}
}

func TestBallMissedPaddle(t *testing.T) {
	const p int32 = 100
	tests := []struct {
		y    int32
		want bool
	}{
		{p - 1, true},
		{p, false},
		{p + PaddleHeight/2, false},
		{p + PaddleHeight, false},
		{p + PaddleHeight + 1, true},
	}

	for _, tt := range tests {
		b := Ball{Y: tt.y}
		if got := b.MissedPaddle(p); got != tt.want {
			t.Errorf("MissedPaddle(%d) with y=%d = %v, want %v", p, tt.y, got, tt.want)
		}
	}
}

func TestBallResetKeepsVelocity(t *testing.T) {
	b := Ball{X: 600, Y: 20, VX: -3, VY: 3}
	b.ResetPosition()

	if b.X != MiddleX || b.Y != MiddleY {
		t.Errorf("position = (%d,%d), want middle", b.X, b.Y)
	}
	if b.VX != -3 || b.VY != 3 {
		t.Errorf("velocity = (%d,%d), want (-3,3)", b.VX, b.VY)
	}
}
