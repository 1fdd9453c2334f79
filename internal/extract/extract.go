package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	mimePDF      = "application/pdf"
	mimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePPTX     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeZip      = "application/zip"
	mimeText     = "text/plain"
	mimeMarkdown = "text/markdown"
	mimeOctet    = "application/octet-stream"
)

var (
	// ErrUnsupportedFormat is returned for documents whose format has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyText is returned when a document parses but holds no text.
	ErrEmptyText = errors.New("no text found in document")
)

// FileExtractor extracts plain text from résumé files on disk.
type FileExtractor struct{}

// NewFileExtractor returns a FileExtractor.
func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

// ExtractFile reads path and returns its plain text. The format is sniffed from the content,
// falling back to the file extension.
func (e *FileExtractor) ExtractFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extract text path=%s: read: %w", filepath.Base(path), err)
	}
	text, err := ExtractTextFromBytes(ctx, data, "", path)
	if err != nil {
		return "", fmt.Errorf("extract text path=%s: %w", filepath.Base(path), err)
	}
	return text, nil
}

// ExtractTextFromBytes extracts text from an in-memory payload. An empty mimeType means
// the format is detected from data and fileName.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := normalizeMimeType(mimeType, fileName, data)

	var (
		text string
		err  error
	)
	switch normalized {
	case mimePDF:
		text, err = extractPDF(data)
	case mimeDOCX:
		text, err = extractDOCX(data)
	case mimeText, mimeMarkdown:
		text = strings.ToValidUTF8(string(data), "")
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, normalized)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return stripDocxXML(doc.Editable().GetContent()), nil
}

// stripDocxXML keeps character data and turns paragraph and line breaks into newlines.
func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := cleanMime(mimeType)
	if clean == "" || clean == mimeOctet {
		clean = cleanMime(mimetype.Detect(data).String())
	}

	switch clean {
	case mimeZip:
		if mapped := mapOOXMLFromZip(data); mapped != "" {
			return mapped
		}
		if byExt := mimeFromExtension(fileName); byExt == mimeDOCX || byExt == mimeXLSX || byExt == mimePPTX {
			return byExt
		}
		return clean
	case mimeOctet, "":
		if byExt := mimeFromExtension(fileName); byExt != "" {
			return byExt
		}
		return mimeOctet
	case "text/x-markdown":
		return mimeMarkdown
	}
	return clean
}

func cleanMime(raw string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(raw, ";")[0]))
}

func mimeFromExtension(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".xlsx":
		return mimeXLSX
	case ".pptx":
		return mimePPTX
	case ".txt":
		return mimeText
	case ".md", ".markdown":
		return mimeMarkdown
	default:
		return ""
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		switch strings.ReplaceAll(f.Name, "\\", "/") {
		case "word/document.xml":
			return mimeDOCX
		case "xl/workbook.xml":
			return mimeXLSX
		case "ppt/presentation.xml":
			return mimePPTX
		}
	}
	return ""
}
