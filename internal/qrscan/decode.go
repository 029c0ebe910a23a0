// Package qrscan decodes employee QR badges from kiosk camera frames and
// drives the kiosk's scan / submit / display cycle.
package qrscan

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const maxFrameWidth = 1024

var ErrNoCode = errors.New("no qr code in frame")

// DecodeFrame decodes a JPEG, PNG or WebP frame and returns the QR payload.
// A data URL ("data:image/jpeg;base64,...") is accepted as well.
func DecodeFrame(frame []byte) (string, error) {
	if bytes.HasPrefix(frame, []byte("data:")) {
		raw, err := fromDataURL(string(frame))
		if err != nil {
			return "", err
		}
		frame = raw
	}
	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return "", fmt.Errorf("decode frame: %w", err)
	}
	return DecodeImage(img)
}

func DecodeImage(img image.Image) (string, error) {
	img = downscale(img)
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCode, err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := zxqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", ErrNoCode
	}
	text := strings.TrimSpace(result.GetText())
	if text == "" {
		return "", ErrNoCode
	}
	return text, nil
}

func downscale(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxFrameWidth {
		return img
	}
	h := b.Dy() * maxFrameWidth / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, maxFrameWidth, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

func fromDataURL(s string) ([]byte, error) {
	_, payload, ok := strings.Cut(s, ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return raw, nil
}
