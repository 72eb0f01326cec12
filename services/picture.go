package services

import (
	"chat-hub/errors"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// validatePicture accepts http(s) URLs and base64 data URIs whose content is an image.
// The declared media type of a data URI is ignored, the bytes are sniffed.
func validatePicture(pic string) error {
	pic = strings.TrimSpace(pic)
	if rest, ok := strings.CutPrefix(pic, "data:"); ok {
		_, payload, found := strings.Cut(rest, ";base64,")
		if !found {
			return fmt.Errorf("%w: base64 data URI expected", errors.ErrInvalidPicture)
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return fmt.Errorf("%w: %w", errors.ErrInvalidPicture, err)
		}
		mime := mimetype.Detect(data)
		if !strings.HasPrefix(mime.String(), "image/") {
			return fmt.Errorf("%w: %s is not an image", errors.ErrInvalidPicture, mime.String())
		}
		return nil
	}

	u, err := url.Parse(pic)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: http(s) URL or data URI expected", errors.ErrInvalidPicture)
	}
	return nil
}
