// Package source loads source copy for translation and the translated
// targets that audits and fixes operate on.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/copyflow-project/copyflow/pkg/errclass"
)

// Format is the markup of a source document.
type Format string

const (
	FormatAuto     Format = ""
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Read loads text from path ("-" reads stdin) and converts HTML to Markdown
// when format is FormatHTML, or FormatAuto and the file looks like HTML.
func Read(path string, stdin io.Reader, format Format) (string, error) {
	data, err := readAll(path, stdin)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if format == FormatHTML || (format == FormatAuto && looksLikeHTML(path, text)) {
		text, err = FromHTML(text)
		if err != nil {
			return "", err
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", errclass.ErrEmptyInput.WithMessage("source text is empty")
	}
	return text, nil
}

// ReadTarget loads a translated target byte for byte. Segments are matched
// against these exact bytes and fixes are written back into them, so line
// endings are kept and an empty file is not an error here.
func ReadTarget(path string, stdin io.Reader) (string, error) {
	data, err := readAll(path, stdin)
	if err != nil {
		return "", fmt.Errorf("read target: %w", err)
	}
	return string(data), nil
}

func readAll(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// FromHTML converts an HTML fragment or document to Markdown.
func FromHTML(html string) (string, error) {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert HTML: %w", err)
	}
	md = strings.ReplaceAll(md, "\r\n", "\n")
	return strings.TrimSpace(md), nil
}

func looksLikeHTML(path, text string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	case ".md", ".markdown", ".txt":
		return false
	}
	head := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
