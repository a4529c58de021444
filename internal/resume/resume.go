package resume

import "errors"

// ErrNoText is returned when a document contains no extractable text,
// typically a scanned PDF without a text layer.
var ErrNoText = errors.New("no extractable text")

type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}
