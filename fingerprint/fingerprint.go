// Package fingerprint computes and compares perceptual image fingerprints.
// Visually similar images produce fingerprints with a small Hamming distance.
package fingerprint

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math/bits"
	"strconv"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
)

// ErrNoFingerprint is returned when a fingerprint cannot be derived from the
// supplied bytes (empty payload, unreadable or corrupt image data). Callers
// treat this as "no image evidence", never as a pipeline failure.
var ErrNoFingerprint = errors.New("no fingerprint")

// Fingerprint is a 64-bit perceptual hash.
type Fingerprint uint64

// String renders the fingerprint as a fixed-width hex string, the form in
// which it is persisted.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Distance returns the Hamming distance between two fingerprints. Zero means
// equal; small distances mean visually near-duplicate source images.
func (f Fingerprint) Distance(other Fingerprint) int {
	return bits.OnesCount64(uint64(f) ^ uint64(other))
}

// Parse decodes a fingerprint from its hex string form.
func Parse(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// Compute derives the perceptual hash of an image payload. The image is
// EXIF-orientation-corrected and downscaled before hashing so that the same
// photo captured with different device orientations still fingerprints
// consistently. Fails soft with ErrNoFingerprint on undecodable data.
func Compute(imageData []byte) (Fingerprint, error) {
	if len(imageData) == 0 {
		return 0, ErrNoFingerprint
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoFingerprint, err)
	}

	img = Normalize(imageData, img)

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoFingerprint, err)
	}

	return Fingerprint(hash.GetHash()), nil
}
