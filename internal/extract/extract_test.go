package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner records the command and returns canned output.
type fakeRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	return f.output, f.err
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestText_Txt(t *testing.T) {
	e := New()
	got, err := e.Text(context.Background(), "notes.txt", strings.NewReader("plain text content"))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "plain text content" {
		t.Errorf("Text() = %q", got)
	}
}

func TestText_Markdown(t *testing.T) {
	e := New()
	md := "# Building Codes\n\nRisers shall not exceed **190 mm**.\n\n- treads\n- landings\n"

	got, err := e.Text(context.Background(), "codes.md", strings.NewReader(md))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}

	for _, want := range []string{"Building Codes", "Risers shall not exceed", "190 mm", "treads", "landings"} {
		if !strings.Contains(got, want) {
			t.Errorf("Text() missing %q in %q", want, got)
		}
	}
	if strings.Contains(got, "#") || strings.Contains(got, "**") {
		t.Errorf("Text() kept markdown syntax: %q", got)
	}
}

func TestText_PDF(t *testing.T) {
	runner := &fakeRunner{output: []byte("extracted pdf text")}
	e := New(WithRunner(runner))

	got, err := e.Text(context.Background(), "doc.pdf", strings.NewReader("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "extracted pdf text" {
		t.Errorf("Text() = %q", got)
	}
	if runner.name != "pdftotext" {
		t.Errorf("runner command = %q, want pdftotext", runner.name)
	}
	if len(runner.args) != 4 || runner.args[0] != "-enc" || runner.args[1] != "UTF-8" || runner.args[3] != "-" {
		t.Errorf("runner args = %v", runner.args)
	}
}

func TestText_PDFFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	e := New(WithRunner(runner))

	_, err := e.Text(context.Background(), "doc.pdf", strings.NewReader("%PDF-1.4 fake"))
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("Text() error = %v, want ErrExtraction", err)
	}
}

func TestText_Docx(t *testing.T) {
	document := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`
	archive := zipArchive(t, map[string]string{"word/document.xml": document})

	e := New()
	got, err := e.Text(context.Background(), "doc.docx", bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}

	want := "First paragraph.\nSecond paragraph."
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestText_DocxMissingDocument(t *testing.T) {
	archive := zipArchive(t, map[string]string{"other.xml": "<x/>"})

	e := New()
	_, err := e.Text(context.Background(), "doc.docx", bytes.NewReader(archive))
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("Text() error = %v, want ErrExtraction", err)
	}
}

func TestText_Pptx(t *testing.T) {
	slide := func(text string) string {
		return `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <a:p><a:r><a:t>` + text + `</a:t></a:r></a:p>
</p:sld>`
	}
	archive := zipArchive(t, map[string]string{
		"ppt/slides/slide2.xml":  slide("Second slide"),
		"ppt/slides/slide1.xml":  slide("First slide"),
		"ppt/slides/slide10.xml": slide("Tenth slide"),
	})

	e := New()
	got, err := e.Text(context.Background(), "deck.pptx", bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}

	want := "First slide\nSecond slide\nTenth slide"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestText_UnsupportedType(t *testing.T) {
	e := New()
	tests := []string{"image.png", "archive.tar.gz", "noextension"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := e.Text(context.Background(), name, strings.NewReader("data"))
			if !errors.Is(err, ErrUnsupportedType) {
				t.Errorf("Text(%q) error = %v, want ErrUnsupportedType", name, err)
			}
		})
	}
}

func TestText_CaseInsensitiveExtension(t *testing.T) {
	e := New()
	got, err := e.Text(context.Background(), "NOTES.TXT", strings.NewReader("upper case name"))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "upper case name" {
		t.Errorf("Text() = %q", got)
	}
}
