package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 {
		t.Errorf("Width() = %d, expected 80", s.Width())
	}
	if s.Height() != 24 {
		t.Errorf("Height() = %d, expected 24", s.Height())
	}

	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if s.Get(x, y) != ' ' {
				t.Fatalf("New screen should be filled with spaces, got %q at (%d, %d)", s.Get(x, y), x, y)
			}
		}
	}
}

func TestScreenSetGet(t *testing.T) {
	s := NewScreen(10, 10)

	s.Set(5, 5, 'X')
	if s.Get(5, 5) != 'X' {
		t.Errorf("Get(5, 5) = %q, expected 'X'", s.Get(5, 5))
	}

	// Out of bounds should be silent
	s.Set(-1, 0, 'A')
	s.Set(100, 0, 'A')
	s.Set(0, -1, 'A')
	s.Set(0, 100, 'A')

	if s.Get(-1, 0) != ' ' {
		t.Error("Out of bounds Get should return space")
	}
}

func TestScreenResizeClears(t *testing.T) {
	s := NewScreen(4, 4)
	s.Set(1, 1, 'X')

	s.Resize(6, 3)

	if s.Width() != 6 || s.Height() != 3 {
		t.Fatalf("Resize() dims = %dx%d, expected 6x3", s.Width(), s.Height())
	}
	if s.Get(1, 1) != ' ' {
		t.Errorf("Resize should clear content, got %q", s.Get(1, 1))
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(10, 2)
	s.DrawText(7, 0, "hello")

	if got := s.Row(0); got != "       hel" {
		t.Errorf("Row(0) = %q, expected clipped text", got)
	}

	s.DrawTextCentered(1, "ab")
	if got := s.Row(1); got != "    ab    " {
		t.Errorf("Row(1) = %q, expected centered text", got)
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(5, 3)
	s.Set(2, 1, 'X')
	s.DrawBox(NewRect(0, 0, 5, 3))

	expected := strings.Join([]string{
		"┌───┐",
		"│   │",
		"└───┘",
	}, "\n")
	if got := s.String(); got != expected {
		t.Errorf("DrawBox output:\n%s\nexpected:\n%s", got, expected)
	}
}

func TestScreenDrawVLine(t *testing.T) {
	s := NewScreen(3, 4)
	s.DrawVLine(1, 1, 5, '|')

	for y := 1; y < 4; y++ {
		if s.Get(1, y) != '|' {
			t.Errorf("Get(1, %d) = %q, expected '|'", y, s.Get(1, y))
		}
	}
	if s.Get(1, 0) != ' ' {
		t.Error("line should start at y=1")
	}
}
