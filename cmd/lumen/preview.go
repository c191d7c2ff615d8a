package main

import (
	"context"
	"fmt"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/lumen/pkg/render"
)

// preview shows img in the terminal until a key is pressed or ctx ends.
func preview(ctx context.Context, img *render.Image) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	draw := func(w, h int) error {
		term.Erase()
		term.Resize(w, h)
		img.Draw(term, uv.Rect(0, 0, w, h))
		return term.Display()
	}
	if err := draw(width, height); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-term.Events():
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				if err := draw(ev.Width, ev.Height); err != nil {
					return fmt.Errorf("display: %w", err)
				}
			case uv.KeyPressEvent:
				return nil
			}
		}
	}
}
