package llm

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
)

const (
	defaultJPEGQuality = 40
	minJPEGQuality     = 10
	// DefaultMaxImageBytes keeps screenshots well under inline payload limits.
	DefaultMaxImageBytes = 9 * 1024 * 1024
)

// CompressImage re-encodes a screenshot as JPEG, stepping the quality down
// by 5 until the result fits maxBytes or the minimum quality is reached.
func CompressImage(raw []byte, maxBytes int) (Media, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Media{}, fmt.Errorf("llm: decode screenshot: %w", err)
	}
	// JPEG has no alpha channel; flatten onto an opaque RGBA first.
	rgba := image.NewRGBA(src.Bounds())
	draw.Draw(rgba, rgba.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(rgba, rgba.Bounds(), src, src.Bounds().Min, draw.Over)

	quality := defaultJPEGQuality
	for {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: quality}); err != nil {
			return Media{}, fmt.Errorf("llm: encode screenshot: %w", err)
		}
		if buf.Len() <= maxBytes || quality-5 < minJPEGQuality {
			return Media{MIMEType: "image/jpeg", Data: buf.Bytes()}, nil
		}
		quality -= 5
	}
}
