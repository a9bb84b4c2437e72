package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds both width and height of a normalized photo.
	MaxDimension = 1024

	// JPEGQuality is the fixed quality factor for re-encoding.
	JPEGQuality = 85

	// dataURIPrefix marks the encoding every normalized payload carries.
	dataURIPrefix = "data:image/jpeg;base64,"
)

// Decode parses user-submitted bytes into an image. PNG, JPEG, GIF and WEBP
// decoders are registered via imports.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Normalize converts any decoded image into a bounded, three-channel JPEG:
// alpha/palette images are flattened to RGB, anything larger than
// MaxDimension in either direction is scaled down uniformly, and the result
// is encoded at the fixed quality factor. Images already within bounds keep
// their original resolution. The output is deterministic for a given input.
//
// The 20MB payload budget is a target, not a ceiling: there is no adaptive
// re-compression loop if the one-shot encode comes out larger.
func Normalize(img image.Image) ([]byte, error) {
	rgb := toRGB(img)

	if w, h := rgb.Bounds().Dx(), rgb.Bounds().Dy(); w > MaxDimension || h > MaxDimension {
		rgb = scaleDown(rgb, MaxDimension)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeDataURI wraps normalized JPEG bytes in a base64 data URI suitable
// for embedding in a JSON request body.
func EncodeDataURI(data []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI is the inverse of EncodeDataURI. Used by the self-test and
// by tests to verify what actually gets attached to outbound requests.
func DecodeDataURI(uri string) ([]byte, error) {
	if len(uri) < len(dataURIPrefix) || uri[:len(dataURIPrefix)] != dataURIPrefix {
		return nil, fmt.Errorf("not an image/jpeg data URI")
	}
	return base64.StdEncoding.DecodeString(uri[len(dataURIPrefix):])
}

// toRGB redraws the image onto a plain RGBA canvas with an opaque alpha
// channel, discarding transparency and palette indexing. JPEG encoding
// ignores the alpha byte, so the result is effectively three-channel.
func toRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgb := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgb, rgb.Bounds(), img, bounds.Min, draw.Src)
	return rgb
}

// scaleDown resizes so that both dimensions fit within maxDim, preserving
// aspect ratio. The longer edge lands exactly on maxDim. CatmullRom is the
// highest-quality filter x/image ships.
func scaleDown(img *image.RGBA, maxDim int) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	var newW, newH int
	if w >= h {
		newW = maxDim
		newH = h * maxDim / w
	} else {
		newH = maxDim
		newW = w * maxDim / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
