package render

import (
	"bufio"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// WritePGM writes a binary (P5) 8-bit grayscale image.
func WritePGM(path string, width, height int, pix []uint8) error {
	if len(pix) != width*height {
		return fmt.Errorf("write %s: have %d bytes for %dx%d", path, len(pix), width, height)
	}
	return writeNetpbm(path, "P5", width, height, pix)
}

// WritePPM writes a binary (P6) 8-bit RGB image.
func WritePPM(path string, img *Image) error {
	if len(img.Pix) != img.Width*img.Height*3 {
		return fmt.Errorf("write %s: have %d bytes for %dx%d", path, len(img.Pix), img.Width, img.Height)
	}
	return writeNetpbm(path, "P6", img.Width, img.Height, img.Pix)
}

// EncodeNetpbm writes the header "<magic>\n<W> <H>\n255\n" followed by pix.
func EncodeNetpbm(w io.Writer, magic string, width, height int, pix []uint8) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n255\n", magic, width, height); err != nil {
		return err
	}
	if _, err := bw.Write(pix); err != nil {
		return err
	}
	return bw.Flush()
}

func writeNetpbm(path, magic string, width, height int, pix []uint8) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodeNetpbm(f, magic, width, height, pix); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// SavePNG writes img as a PNG file.
func SavePNG(path string, img *Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img.ToRGBA()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
