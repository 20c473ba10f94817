package document

import (
	"bytes"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"

	"github.com/gen2brain/heic"

	"github.com/joseph-ayodele/receipt-extract/internal/common"
)

// LoadImage decodes a receipt photograph from disk. HEIC/HEIF (the iPhone
// default) is handled explicitly; everything else goes through the registered
// stdlib decoders.
func LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError("IMG_OPEN", "read image", common.ErrInvalidImage)
	}

	if isHEIC(data) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, common.NewAppError("IMG_DECODE", err.Error(), common.ErrInvalidImage)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewAppError("IMG_DECODE", err.Error(), common.ErrInvalidImage)
	}
	return img, nil
}

// isHEIC sniffs the ftyp box brands HEIC containers start with.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	default:
		return false
	}
}
