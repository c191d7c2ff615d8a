package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw renders img into area using upper half blocks, two image rows per
// terminal row. The image is scaled to fill the area.
func (img *Image) Draw(scr uv.Screen, area uv.Rectangle) {
	cols, rows := area.Dx(), area.Dy()
	if cols <= 0 || rows <= 0 || img.Width == 0 || img.Height == 0 {
		return
	}

	for row := range rows {
		// Top and bottom halves sample separate source rows
		topY := (row * 2) * img.Height / (rows * 2)
		botY := (row*2 + 1) * img.Height / (rows * 2)

		for col := range cols {
			x := col * img.Width / cols
			top := img.At(x, topY)
			bot := img.At(x, botY)

			scr.SetCell(area.Min.X+col, area.Min.Y+row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgb(top),
					Bg: rgb(bot),
				},
			})
		}
	}
}

func rgb(c [3]uint8) color.Color {
	return color.RGBA{c[0], c[1], c[2], 255}
}
