// Package ingest converts uploaded PDF documents into the plain text
// fed into the context caches.
package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	apperrors "github.com/interviewprep-dev/interviewprep/pkg/prep/errors"
)

// ExtractText extracts the plain text of a PDF given as raw bytes.
// An unreadable file or a file with no recoverable text is a validation
// failure: the caller has nothing useful to cache.
func ExtractText(content []byte) (string, error) {
	if len(content) == 0 {
		return "", apperrors.New(apperrors.ErrCodeValidation, "empty document", nil)
	}

	reader, err := pdf.NewReader(newBytesReaderAt(content), int64(len(content)))
	if err != nil {
		return "", apperrors.New(apperrors.ErrCodeValidation, "unreadable PDF document", err)
	}

	var textBuilder strings.Builder

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Some pages may fail to parse; keep what the rest yields
			continue
		}

		if text != "" {
			if textBuilder.Len() > 0 {
				textBuilder.WriteString("\n\n")
			}
			textBuilder.WriteString(text)
		}
	}

	extracted := strings.TrimSpace(textBuilder.String())
	if extracted == "" {
		return "", apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("no text content in PDF (%d pages, possibly image-based)", numPages), nil)
	}

	return extracted, nil
}

// bytesReaderAt implements io.ReaderAt for a byte slice.
type bytesReaderAt struct {
	data []byte
}

func newBytesReaderAt(data []byte) *bytesReaderAt {
	return &bytesReaderAt{data: data}
}

func (r *bytesReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset")
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n = copy(p, r.data[off:])
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}
