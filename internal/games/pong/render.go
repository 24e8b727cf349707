package pong

import (
	"fmt"

	"github.com/vovakirdan/netpong/internal/core"
)

// Render characters.
const (
	PaddleChar = '█'
	BallChar   = '●'
	NetChar    = '│'
)

// Render draws the field into dst, scaled from world units to cells.
// Row 0 holds the labels and scores; the field fills the rows below it.
// Render only reads s.
func Render(s *State, dst *core.Screen, leftLabel, rightLabel string) {
	dst.Clear()

	w, h := dst.Width(), dst.Height()
	if w < 4 || h < 3 {
		return
	}
	fieldH := h - 1

	centerX := w / 2
	for y := 1; y < h; y += 2 {
		dst.Set(centerX, y, NetChar)
	}

	drawPaddle(dst, 0, s.Left.Pos, fieldH)
	drawPaddle(dst, w-1, s.Right.Pos, fieldH)

	bx := core.Scale(int(s.Ball.X), ScreenWidth, w)
	by := 1 + core.Scale(int(s.Ball.Y), ScreenHeight, fieldH)
	dst.Set(bx, by, BallChar)

	dst.DrawText(centerX-5, 0, fmt.Sprintf("%d", s.Left.Score))
	dst.DrawText(centerX+4, 0, fmt.Sprintf("%d", s.Right.Score))
	dst.DrawText(1, 0, leftLabel)
	dst.DrawText(w-1-len([]rune(rightLabel)), 0, rightLabel)
}

func drawPaddle(dst *core.Screen, x int, pos int32, fieldH int) {
	top := core.Scale(int(pos), ScreenHeight, fieldH)
	bottom := core.Scale(int(pos+PaddleHeight), ScreenHeight, fieldH)
	dst.DrawVLine(x, 1+top, max(1, bottom-top+1), PaddleChar)
}

// DrawMessage draws a boxed two-line message in the middle of dst.
func DrawMessage(dst *core.Screen, title, subtitle string) {
	boxW := max(len([]rune(title)), len([]rune(subtitle))) + 4
	boxH := 5
	boxX := (dst.Width() - boxW) / 2
	boxY := (dst.Height() - boxH) / 2

	dst.DrawBox(core.NewRect(boxX, boxY, boxW, boxH))
	dst.DrawText(boxX+(boxW-len([]rune(title)))/2, boxY+1, title)
	dst.DrawText(boxX+(boxW-len([]rune(subtitle)))/2, boxY+3, subtitle)
}
