package wizard_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/preview"
	"github.com/neomorfeo/merchantdesk/internal/wizard"
)

func TestFileStore_RejectsOversize(t *testing.T) {
	reg := preview.NewRegistry()
	s := wizard.NewFileStore(reg)

	big := bytes.Repeat([]byte{0}, wizard.MaxFileSize+1)
	_, err := s.Add(domain.SlotPANDocument, "pan.pdf", "application/pdf", big)

	var rej *domain.UploadRejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected UploadRejectedError, got %v", err)
	}
	if s.Len() != 0 || reg.Len() != 0 {
		t.Errorf("rejected file was staged: store=%d previews=%d", s.Len(), reg.Len())
	}

	exact := bytes.Repeat([]byte{0}, wizard.MaxFileSize)
	if _, err := s.Add(domain.SlotPANDocument, "pan.pdf", "application/pdf", exact); err != nil {
		t.Errorf("file of exactly the limit rejected: %v", err)
	}
}

func TestFileStore_RejectsType(t *testing.T) {
	s := wizard.NewFileStore(preview.NewRegistry())

	for _, typ := range []string{"image/gif", "text/plain", "application/zip"} {
		_, err := s.Add(domain.SlotShopPhoto, "x", typ, []byte("data"))
		var rej *domain.UploadRejectedError
		if !errors.As(err, &rej) {
			t.Errorf("type %q: expected UploadRejectedError, got %v", typ, err)
		}
	}

	for _, typ := range wizard.AllowedTypes {
		if _, err := s.Add(domain.SlotShopPhoto, "x", typ, []byte("data")); err != nil {
			t.Errorf("type %q rejected: %v", typ, err)
		}
	}
}

func TestFileStore_SniffsGenericType(t *testing.T) {
	s := wizard.NewFileStore(preview.NewRegistry())

	f, err := s.Add(domain.SlotPANDocument, "scan", "application/octet-stream", pdfData)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if f.MimeType != "application/pdf" {
		t.Errorf("MimeType = %q, want application/pdf", f.MimeType)
	}

	if _, err := s.Add(domain.SlotShopPhoto, "notes", "", []byte("just some text")); err == nil {
		t.Error("sniffed text file accepted")
	}
}

func TestFileStore_ReplaceReleasesPrevious(t *testing.T) {
	reg := preview.NewRegistry()
	s := wizard.NewFileStore(reg)

	first, _ := s.Add(domain.SlotShopPhoto, "a.png", "image/png", pngData)
	second, err := s.Add(domain.SlotShopPhoto, "b.png", "image/png", pngData)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if reg.Len() != 1 {
		t.Errorf("previews held = %d, want 1", reg.Len())
	}
	if _, err := reg.Open(first.Preview); !errors.Is(err, domain.ErrPreviewNotFound) {
		t.Error("replaced preview still open")
	}
	if second.Uploaded {
		t.Error("replacement marked as uploaded")
	}
}

func TestFileStore_RemoveReleases(t *testing.T) {
	reg := preview.NewRegistry()
	s := wizard.NewFileStore(reg)

	f, _ := s.Add(domain.SlotAadharDocument, "a.pdf", "application/pdf", pdfData)
	if !s.Remove(domain.SlotAadharDocument) {
		t.Fatal("Remove returned false")
	}
	if _, ok := s.Get(domain.SlotAadharDocument); ok {
		t.Error("slot still present after Remove")
	}
	if _, err := reg.Open(f.Preview); !errors.Is(err, domain.ErrPreviewNotFound) {
		t.Error("preview not released by Remove")
	}
	if s.Remove(domain.SlotAadharDocument) {
		t.Error("second Remove returned true")
	}
}

func TestFileStore_MarkUploadedIgnoresReplaced(t *testing.T) {
	s := wizard.NewFileStore(preview.NewRegistry())

	old, _ := s.Add(domain.SlotShopPhoto, "a.png", "image/png", pngData)
	s.Add(domain.SlotShopPhoto, "b.png", "image/png", pngData)
	s.MarkUploaded(old)

	if got := s.Pending(); len(got) != 1 || got[0].Name != "b.png" {
		t.Errorf("Pending() = %+v, want b.png still pending", got)
	}
}

func TestFileStore_CloseReleasesAll(t *testing.T) {
	reg := preview.NewRegistry()
	s := wizard.NewFileStore(reg)

	s.Add(domain.SlotPANDocument, "a.pdf", "application/pdf", pdfData)
	s.Add(domain.SlotShopPhoto, "b.png", "image/png", pngData)
	s.Close()

	if s.Len() != 0 || reg.Len() != 0 {
		t.Errorf("after Close: store=%d previews=%d", s.Len(), reg.Len())
	}
}
