package checkout

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"storformat/internal/errors"
)

const previewQuality = 82

// PreviewDataURL downsizes an image to fit maxPx × maxPx, flattens it onto white and
// returns it as a JPEG data URL. Smaller images keep their size.
func PreviewDataURL(data []byte, maxPx int) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", errors.Wrap(errors.TypeInput, "decode design", err)
	}
	fitted := imaging.Fit(img, maxPx, maxPx, imaging.Lanczos)
	flat := imaging.Overlay(imaging.New(fitted.Bounds().Dx(), fitted.Bounds().Dy(), color.White), fitted, image.Pt(0, 0), 1)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(previewQuality)); err != nil {
		return "", errors.Internal("encode preview", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
