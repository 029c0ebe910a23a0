package qrscan

import (
	"errors"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Badge renders employeeID as a size x size PNG QR code.
func Badge(employeeID string, size int) ([]byte, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, errors.New("employee id is required")
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(employeeID, qrcode.Medium, size)
}
