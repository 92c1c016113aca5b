package fingerprint

import (
	"bytes"
	"image"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

const maxImageDimension = 512 // Maximum width or height in pixels before hashing

// Normalize applies EXIF orientation correction and downscales the image so
// that width and height do not exceed maxImageDimension, preserving aspect
// ratio. The raw bytes are needed alongside the decoded image because the
// orientation tag lives in the EXIF header.
func Normalize(imageData []byte, img image.Image) image.Image {
	if orientation := imageOrientation(imageData); orientation != 1 {
		img = correctOrientation(img, orientation)
	}
	return downscale(img)
}

// imageOrientation extracts the EXIF orientation from JPEG data.
func imageOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1 // Default orientation if no EXIF data or error
	}

	orientation, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientVal, err := orientation.Int(0)
	if err != nil {
		return 1
	}

	return orientVal
}

// correctOrientation rewrites the pixels according to the EXIF orientation
// value so equivalent photos hash identically regardless of device rotation.
func correctOrientation(img image.Image, orientation int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	switch orientation {
	case 2: // Flip horizontal
		newImg := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(width-1-x, y, img.At(x, y))
			}
		}
		return newImg
	case 3: // Rotate 180
		newImg := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(width-1-x, height-1-y, img.At(x, y))
			}
		}
		return newImg
	case 4: // Flip vertical
		newImg := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(x, height-1-y, img.At(x, y))
			}
		}
		return newImg
	case 6: // Rotate 90 clockwise
		newImg := image.NewRGBA(image.Rect(0, 0, height, width))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(height-1-y, x, img.At(x, y))
			}
		}
		return newImg
	case 8: // Rotate 90 counter-clockwise
		newImg := image.NewRGBA(image.Rect(0, 0, height, width))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(y, width-1-x, img.At(x, y))
			}
		}
		return newImg
	default: // Orientation 1, mirrored transpositions, or unknown
		return img
	}
}

// downscale resizes to fit within maxImageDimension, preserving aspect ratio.
func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxImageDimension && height <= maxImageDimension {
		return img
	}

	scaleX := float64(maxImageDimension) / float64(width)
	scaleY := float64(maxImageDimension) / float64(height)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth > maxImageDimension {
		newWidth = maxImageDimension
	}
	if newHeight > maxImageDimension {
		newHeight = maxImageDimension
	}

	newImg := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(newImg, newImg.Bounds(), img, img.Bounds(), draw.Over, nil)
	return newImg
}
