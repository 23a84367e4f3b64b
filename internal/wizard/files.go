package wizard

import (
	"bytes"
	"io"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/preview"
)

// MaxFileSize is the largest file that can be staged, in bytes.
const MaxFileSize = 5 * 1024 * 1024

// AllowedTypes lists the media types accepted for staging.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/jpg", "application/pdf"}

// Previewer issues and releases preview handles.
type Previewer interface {
	Acquire(p preview.Preview) preview.Handle
	Release(h preview.Handle)
}

// StagedFile is a file held for a document slot until it is uploaded.
type StagedFile struct {
	Slot     domain.DocumentSlot
	Name     string
	Size     int64
	MimeType string
	Preview  preview.Handle
	Uploaded bool

	data []byte
}

// Content returns a reader over the staged bytes.
func (f StagedFile) Content() io.Reader {
	return bytes.NewReader(f.data)
}

// FileStore maps document slots to staged files. It is not safe for
// concurrent use; Wizard serialises access.
type FileStore struct {
	previews Previewer
	files    map[domain.DocumentSlot]*StagedFile
}

// NewFileStore returns an empty store issuing previews from p.
func NewFileStore(p Previewer) *FileStore {
	return &FileStore{previews: p, files: make(map[domain.DocumentSlot]*StagedFile)}
}

// Add stages data under slot, replacing and releasing any previous file.
// The declared type is sniffed from content when it is missing or generic.
func (s *FileStore) Add(slot domain.DocumentSlot, name, declaredType string, data []byte) (StagedFile, error) {
	if _, ok := slot.DocumentType(); !ok {
		return StagedFile{}, &domain.UnknownSlotError{Slot: string(slot)}
	}
	if len(data) > MaxFileSize {
		return StagedFile{}, &domain.UploadRejectedError{Slot: slot, Reason: "File size must be less than 5MB"}
	}

	mimeType := normalizeType(declaredType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = normalizeType(mimetype.Detect(data).String())
	}
	if !slices.Contains(AllowedTypes, mimeType) {
		return StagedFile{}, &domain.UploadRejectedError{Slot: slot, Reason: "Only JPEG, PNG and PDF files are allowed"}
	}

	handle := s.previews.Acquire(preview.Preview{Name: name, MimeType: mimeType, Data: data})
	if prev, ok := s.files[slot]; ok {
		s.previews.Release(prev.Preview)
	}

	f := &StagedFile{
		Slot:     slot,
		Name:     name,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Preview:  handle,
		data:     data,
	}
	s.files[slot] = f
	return *f, nil
}

// Remove releases the preview of slot and forgets the file.
func (s *FileStore) Remove(slot domain.DocumentSlot) bool {
	f, ok := s.files[slot]
	if !ok {
		return false
	}
	s.previews.Release(f.Preview)
	delete(s.files, slot)
	return true
}

// Get returns the file staged under slot.
func (s *FileStore) Get(slot domain.DocumentSlot) (StagedFile, bool) {
	f, ok := s.files[slot]
	if !ok {
		return StagedFile{}, false
	}
	return *f, true
}

// Holds reports whether h is the preview of a file in the store.
func (s *FileStore) Holds(h preview.Handle) bool {
	for _, f := range s.files {
		if f.Preview == h {
			return true
		}
	}
	return false
}

// Len reports the number of staged files.
func (s *FileStore) Len() int {
	return len(s.files)
}

// List returns staged files in document-stage order.
func (s *FileStore) List() []StagedFile {
	out := make([]StagedFile, 0, len(s.files))
	for _, slot := range slotOrder() {
		if f, ok := s.files[slot]; ok {
			out = append(out, *f)
		}
	}
	return out
}

// Pending returns staged files not yet uploaded, in document-stage order.
func (s *FileStore) Pending() []StagedFile {
	var out []StagedFile
	for _, f := range s.List() {
		if !f.Uploaded {
			out = append(out, f)
		}
	}
	return out
}

// MarkUploaded flags f's slot as uploaded unless it was replaced since f was read.
func (s *FileStore) MarkUploaded(f StagedFile) {
	cur, ok := s.files[f.Slot]
	if ok && cur.Preview == f.Preview {
		cur.Uploaded = true
	}
}

// Close releases every preview handle.
func (s *FileStore) Close() {
	for slot, f := range s.files {
		s.previews.Release(f.Preview)
		delete(s.files, slot)
	}
}

func slotOrder() []domain.DocumentSlot {
	var out []domain.DocumentSlot
	for _, st := range domain.Stages {
		for _, d := range st.Documents {
			out = append(out, d.Slot)
		}
	}
	return out
}

func normalizeType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
