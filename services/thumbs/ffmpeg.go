package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
)

const (
	thumbWidth      = 320
	extractTimeout  = 30 * time.Second
	extractSeekSecs = "3"
)

// FFmpegGenerator extracts a frame with ffmpeg and scales it down to a JPEG
// thumbnail.
type FFmpegGenerator struct {
	ffmpegPath string
}

// NewFFmpegGenerator locates ffmpeg on PATH. A missing binary is not an
// error here; generation attempts will fail and be logged instead.
func NewFFmpegGenerator() *FFmpegGenerator {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		path = "ffmpeg"
	}
	return &FFmpegGenerator{ffmpegPath: path}
}

// Generate grabs a frame a few seconds in, downscales it and writes destPath.
func (g *FFmpegGenerator) Generate(ctx context.Context, sourcePath, destPath string) error {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.ffmpegPath,
		"-ss", extractSeekSecs,
		"-i", sourcePath,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %v: %s", err, firstLine(stderr.Bytes()))
	}

	img, _, err := image.Decode(&out)
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	scaled := scaleToWidth(img, thumbWidth)

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := destPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := jpeg.Encode(f, scaled, &jpeg.Options{Quality: 82}); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, destPath)
}

func scaleToWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() <= width {
		return img
	}
	height := b.Dy() * width / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func firstLine(b []byte) string {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimSpace(b))
}
