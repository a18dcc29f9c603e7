// Package imaging decodes fetched card images, resizes them per a fit
// policy, and encodes them in the target codec.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/gen2brain/webp"
	"golang.org/x/image/draw"
)

// Fit policies.
const (
	FitThumbnail = "thumbnail"
	FitAxis      = "fit_axis"
)

// Codecs.
const (
	CodecWebP = "webp"
	CodecJPEG = "jpeg"
	CodecPNG  = "png"
)

// ErrDecode reports bytes that do not decode as a supported image.
var ErrDecode = errors.New("image decode failed")

// Transformer turns raw source bytes into the encoded target artifact.
type Transformer struct {
	FitPolicy string
	Width     int
	Height    int
	Codec     string
	Quality   int
}

// Output is an encoded artifact.
type Output struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Transform decodes, resizes, and encodes raw.
func (t Transformer) Transform(raw []byte) (Output, error) {
	if len(raw) == 0 {
		return Output{}, fmt.Errorf("%w: empty input", ErrDecode)
	}
	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Output{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Output{}, fmt.Errorf("%w: %s image has no pixels", ErrDecode, format)
	}

	w, h := t.TargetSize(b.Dx(), b.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	stddraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, stddraw.Src)
	if w == b.Dx() && h == b.Dy() {
		stddraw.Draw(dst, dst.Bounds(), src, b.Min, stddraw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	codec := strings.ToLower(strings.TrimSpace(t.Codec))
	switch codec {
	case CodecWebP, "":
		codec = CodecWebP
		err = webp.Encode(&buf, dst, webp.Options{Quality: t.quality(), Method: 4})
	case CodecJPEG, "jpg":
		codec = CodecJPEG
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: t.quality()})
	case CodecPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, dst)
	default:
		return Output{}, fmt.Errorf("unsupported codec %q", t.Codec)
	}
	if err != nil {
		return Output{}, fmt.Errorf("encode %s: %w", codec, err)
	}
	return Output{
		Data:        buf.Bytes(),
		ContentType: "image/" + codec,
		Width:       w,
		Height:      h,
	}, nil
}

// TargetSize computes output dimensions for a source of srcW x srcH.
//
// thumbnail fits inside the Width x Height box preserving aspect ratio and
// never upscales. fit_axis scales to fill the limiting axis exactly, so a
// smaller source is enlarged.
func (t Transformer) TargetSize(srcW, srcH int) (int, int) {
	if t.Width <= 0 || t.Height <= 0 || srcW <= 0 || srcH <= 0 {
		return srcW, srcH
	}
	ar := float64(srcW) / float64(srcH)
	boxAR := float64(t.Width) / float64(t.Height)

	if t.FitPolicy == FitAxis {
		if ar > boxAR {
			return t.Width, max(1, int(float64(t.Width)/ar))
		}
		return max(1, int(float64(t.Height)*ar)), t.Height
	}

	if srcW <= t.Width && srcH <= t.Height {
		return srcW, srcH
	}
	if ar > boxAR {
		return t.Width, max(1, int(float64(t.Width)/ar+0.5))
	}
	return max(1, int(float64(t.Height)*ar+0.5)), t.Height
}

func (t Transformer) quality() int {
	if t.Quality < 1 || t.Quality > 100 {
		return 85
	}
	return t.Quality
}
