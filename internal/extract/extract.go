// Package extract converts uploaded files into plain text for ingestion.
// Supported formats: txt, md, pdf, docx, pptx.
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
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"
)

var (
	// ErrUnsupportedType indicates a file extension with no extractor.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrExtraction indicates that a supported file could not be converted to text.
	ErrExtraction = errors.New("text extraction failed")
)

// CommandRunner executes an external command and returns its stdout.
// It exists so tests can supply a fake instead of requiring pdftotext.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Extractor converts uploaded files into plain text.
type Extractor struct {
	runner   CommandRunner
	markdown goldmark.Markdown
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRunner replaces the command runner used for PDF extraction.
func WithRunner(r CommandRunner) Option {
	return func(e *Extractor) {
		e.runner = r
	}
}

// New creates an Extractor. PDF extraction shells out to pdftotext.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		runner: execRunner{},
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Text extracts plain text from the named file content. The format is chosen
// by file extension.
func (e *Extractor) Text(ctx context.Context, filename string, r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrExtraction, filename, err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return string(content), nil
	case ".md":
		return e.markdownText(content), nil
	case ".pdf":
		return e.pdfText(ctx, content)
	case ".docx":
		return docxText(content)
	case ".pptx":
		return pptxText(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}
}

// markdownText parses markdown and collects the text segments of the AST,
// dropping formatting and link targets.
func (e *Extractor) markdownText(content []byte) string {
	doc := e.markdown.Parser().Parse(gmtext.NewReader(content))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.CodeBlock:
			writeLines(&b, node.Lines(), content)
		case *ast.FencedCodeBlock:
			writeLines(&b, node.Lines(), content)
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

func writeLines(b *strings.Builder, lines *gmtext.Segments, content []byte) {
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(content))
	}
}

// pdfText writes the content to a temp file and converts it with pdftotext.
func (e *Extractor) pdfText(ctx context.Context, content []byte) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	out, err := e.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return string(out), nil
}

// docxText reads word/document.xml from the archive and collects the text
// runs, one line per paragraph.
func docxText(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive: %v", ErrExtraction, err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		text, err := officeXMLText(rc)
		_ = rc.Close()
		if err != nil {
			return "", err
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: word/document.xml not found", ErrExtraction)
}

// pptxText collects text from every slide in the archive, in slide order.
func pptxText(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: not a pptx archive: %v", ErrExtraction, err)
	}

	var slides []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("%w: no slides found", ErrExtraction)
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideOrder(slides[i].Name) < slideOrder(slides[j].Name)
	})

	var parts []string
	for _, f := range slides {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		text, err := officeXMLText(rc)
		_ = rc.Close()
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// slideOrder extracts the numeric suffix from ppt/slides/slideN.xml so
// slide10 sorts after slide2.
func slideOrder(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), ".xml")
	digits := strings.TrimPrefix(base, "slide")
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// officeXMLText streams an OOXML part and concatenates the contents of its
// <t> elements, separating paragraphs (<p>) with newlines. Both docx (w:)
// and pptx (a:) vocabularies use these local names.
func officeXMLText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var b strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: malformed xml: %v", ErrExtraction, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteString("\n")
				}
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
