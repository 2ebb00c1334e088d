package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jobboard/jobboard-go/internal/model"
)

var (
	ErrInvalidResumeType = errors.New("resume must be a PDF, DOC or DOCX file")
	ErrResumeTooLarge    = errors.New("resume exceeds maximum size")
)

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

// resumeTypes lists, per extension, the sniffed types accepted for it. Legacy
// .doc files do not always carry the Word CLSID, and a .docx may only be
// recognisable as a zip within the sniffed prefix.
var resumeTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

// inspectResume checks extension, declared size and content type of an
// upload. It returns the lower-cased extension and a reader that replays
// the sniffed prefix followed by the rest of the content.
func inspectResume(up *model.ResumeUpload, maxBytes int64) (string, io.Reader, error) {
	if up.Size > maxBytes {
		return "", nil, ErrResumeTooLarge
	}

	ext := strings.ToLower(filepath.Ext(up.Filename))
	allowed, ok := resumeTypes[ext]
	if !ok {
		return "", nil, ErrInvalidResumeType
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("reading resume: %w", err)
	}
	if n == 0 {
		return "", nil, ErrInvalidResumeType
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if !mimeAllowed(detected, allowed) {
		return "", nil, ErrInvalidResumeType
	}

	return ext, io.MultiReader(bytes.NewReader(head), up.Content), nil
}

func mimeAllowed(m *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if m.Is(a) {
			return true
		}
	}
	return false
}

// originalName keeps the base name of an uploaded file for display only.
func originalName(name string) string {
	name = clean(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	for len(name) > 255 {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}
