package turn

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"chatdesk/internal/models"
)

func TestReadPDFPages(t *testing.T) {
	pages, err := readPDFPages(newPDF(t, "Hello PDF", "Second page"))
	if err != nil {
		t.Fatalf("read pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d: %q", len(pages), pages)
	}
	if strings.TrimSpace(pages[0]) != "Hello PDF" || strings.TrimSpace(pages[1]) != "Second page" {
		t.Fatalf("unexpected page text: %q", pages)
	}
}

func TestBuildTurnRealDocument(t *testing.T) {
	got, err := NewBuilder().BuildTurn("", &UploadedFile{Name: "hello.pdf", Data: newPDF(t, "Hello PDF")})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "--- Content from PDF file: hello.pdf ---\n" +
		"--- Page 1 of hello.pdf ---\nHello PDF"
	if len(got.Parts) != 1 {
		t.Fatalf("expected one part, got %#v", got.Parts)
	}
	if text := got.Parts[0].(models.TextPart).Text; text != want {
		t.Fatalf("unexpected pdf text:\n%s", text)
	}
	if got.DisplayText != "(Attached PDF: hello.pdf)" {
		t.Fatalf("unexpected annotation %q", got.DisplayText)
	}
}

// newPDF writes one Helvetica text line per page with a matching xref table.
func newPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	kids := make([]string, 0, len(pages))
	for _, text := range pages {
		page := len(objects) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", page+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
