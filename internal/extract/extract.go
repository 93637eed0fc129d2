// Package extract turns uploaded study material into plain text for the
// generation engine. Supported: .txt, .md, .pdf.
package extract

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// MaxChars is the hard bound on extracted text; the generation engine never
// sees more than this.
const MaxChars = 100_000

var ErrUnsupportedFileType = errors.New("only .txt, .pdf, and .md files are supported")

// ValidateFilename checks the extension and returns it lowercased.
func ValidateFilename(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt", ".md", ".pdf":
		return ext, nil
	}
	return "", ErrUnsupportedFileType
}

// Text extracts plain text from the file at path, capping at MaxChars. The
// bool reports whether the cap truncated anything.
func Text(path, ext string) (string, bool, error) {
	var (
		text string
		err  error
	)
	switch ext {
	case ".txt":
		text, err = textFromPlain(path)
	case ".md":
		text, err = textFromMarkdown(path)
	case ".pdf":
		text, err = textFromPDF(path)
	default:
		return "", false, ErrUnsupportedFileType
	}
	if err != nil {
		return "", false, err
	}
	truncated := len(text) > MaxChars
	if truncated {
		text = text[:MaxChars]
	}
	return strings.TrimSpace(text), truncated, nil
}

func textFromPlain(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	// salvage non-UTF-8 uploads byte-by-byte rather than rejecting them
	var b strings.Builder
	for _, c := range raw {
		if c < 0x80 {
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func textFromMarkdown(path string) (string, error) {
	src, err := textFromPlain(path)
	if err != nil {
		return "", err
	}
	var rendered bytes.Buffer
	if err := goldmark.Convert([]byte(src), &rendered); err != nil {
		return "", err
	}
	return stripTags(&rendered), nil
}

func stripTags(r *bytes.Buffer) string {
	tok := html.NewTokenizer(r)
	var b strings.Builder
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			if txt := strings.TrimSpace(string(tok.Text())); txt != "" {
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				b.WriteString(txt)
			}
		}
	}
	return b.String()
}

func textFromPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
