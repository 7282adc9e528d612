package discourse

import (
	"bytes"
	"fmt"
	"mime/multipart"
)

// MultipartForm accumulates fields and a single file part for an upload
// request. The encoded payload is buffered in memory so each form is
// single-shot: encode consumes nothing, but the transport still refuses to
// retry multipart requests.
type MultipartForm struct {
	fields    [][2]string
	fileField string
	fileName  string
	fileData  []byte
}

// NewMultipartForm creates an empty form.
func NewMultipartForm() *MultipartForm {
	return &MultipartForm{}
}

// AddField appends a plain form field.
func (f *MultipartForm) AddField(name, value string) *MultipartForm {
	f.fields = append(f.fields, [2]string{name, value})
	return f
}

// SetFile attaches the file part.
func (f *MultipartForm) SetFile(field, filename string, data []byte) *MultipartForm {
	f.fileField = field
	f.fileName = filename
	f.fileData = data
	return f
}

// encode renders the form body and returns it with its boundary-bearing
// content type.
func (f *MultipartForm) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("writing form field %q: %w", field[0], err)
		}
	}
	if f.fileField != "" {
		part, err := w.CreateFormFile(f.fileField, f.fileName)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part: %w", err)
		}
		if _, err := part.Write(f.fileData); err != nil {
			return nil, "", fmt.Errorf("writing file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalizing multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
