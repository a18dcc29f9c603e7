package imaging_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"cardsync/internal/imaging"
)

func encodePNG(t *testing.T, w, h int, transparent bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: uint8(x), G: uint8(y), B: 120, A: 255}
			if transparent {
				c.A = 0
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name       string
		policy     string
		srcW, srcH int
		wantW      int
		wantH      int
	}{
		{"thumbnail shrinks tall", imaging.FitThumbnail, 1468, 2048, 734, 1024},
		{"thumbnail keeps small", imaging.FitThumbnail, 300, 400, 300, 400},
		{"thumbnail shrinks wide", imaging.FitThumbnail, 2000, 1000, 734, 367},
		{"fit axis enlarges", imaging.FitAxis, 300, 400, 734, 978},
		{"fit axis wide", imaging.FitAxis, 1000, 500, 734, 367},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := imaging.Transformer{FitPolicy: tc.policy, Width: 734, Height: 1024}
			w, h := tr.TargetSize(tc.srcW, tc.srcH)
			if w != tc.wantW || h != tc.wantH {
				t.Fatalf("TargetSize(%d,%d) = %dx%d, want %dx%d", tc.srcW, tc.srcH, w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestTransformFitsBoxAndKeepsAspect(t *testing.T) {
	raw := encodePNG(t, 200, 300, false)
	for _, policy := range []string{imaging.FitThumbnail, imaging.FitAxis} {
		tr := imaging.Transformer{FitPolicy: policy, Width: 100, Height: 100, Codec: imaging.CodecPNG}
		out, err := tr.Transform(raw)
		if err != nil {
			t.Fatalf("%s: Transform returned error: %v", policy, err)
		}
		img, err := png.Decode(bytes.NewReader(out.Data))
		if err != nil {
			t.Fatalf("%s: decode output: %v", policy, err)
		}
		b := img.Bounds()
		if b.Dx() > 100 || b.Dy() > 100 {
			t.Fatalf("%s: output %dx%d exceeds box", policy, b.Dx(), b.Dy())
		}
		wantW := float64(b.Dy()) * 200.0 / 300.0
		if math.Abs(float64(b.Dx())-wantW) > 1 {
			t.Fatalf("%s: aspect drift: got %dx%d", policy, b.Dx(), b.Dy())
		}
		if out.ContentType != "image/png" {
			t.Fatalf("%s: content type %q", policy, out.ContentType)
		}
	}
}

func TestTransformFlattensTransparencyOnWhite(t *testing.T) {
	raw := encodePNG(t, 10, 10, true)
	tr := imaging.Transformer{FitPolicy: imaging.FitThumbnail, Width: 10, Height: 10, Codec: imaging.CodecPNG}
	out, err := tr.Transform(raw)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	r, g, b, a := img.At(5, 5).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Fatalf("expected white pixel, got %v %v %v %v", r, g, b, a)
	}
}

func TestTransformJPEG(t *testing.T) {
	tr := imaging.Transformer{FitPolicy: imaging.FitThumbnail, Width: 50, Height: 50, Codec: "jpg", Quality: 80}
	out, err := tr.Transform(encodePNG(t, 100, 100, false))
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	if out.ContentType != "image/jpeg" {
		t.Fatalf("content type %q", out.ContentType)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out.Data)); err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
}

func TestTransformRejectsCorruptInput(t *testing.T) {
	tr := imaging.Transformer{Width: 10, Height: 10, Codec: imaging.CodecPNG}
	for _, raw := range [][]byte{nil, []byte("<html>not an image</html>")} {
		if _, err := tr.Transform(raw); !errors.Is(err, imaging.ErrDecode) {
			t.Fatalf("expected ErrDecode, got %v", err)
		}
	}
}

func TestTransformUnknownCodec(t *testing.T) {
	tr := imaging.Transformer{Width: 10, Height: 10, Codec: "avif"}
	if _, err := tr.Transform(encodePNG(t, 4, 4, false)); err == nil {
		t.Fatal("expected unsupported codec error")
	}
}
