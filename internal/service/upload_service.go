package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UploadFolders are the buckets an uploaded file may be filed under.
var UploadFolders = map[string]bool{
	"shop_images":         true,
	"company_licenses":    true,
	"installation_images": true,
	"damaged_images":      true,
	"resolution_images":   true,
	"invoices":            true,
	"other":               true,
}

// uploadTypes maps the sniffed content type to the stored file extension.
var uploadTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

type UploadService interface {
	Upload(ctx context.Context, folder string, r io.Reader, size int64) (*dto.UploadResponse, error)
}

type uploadService struct {
	store    infra.Storage
	maxBytes int64
}

func NewUploadService(store infra.Storage, maxBytes int64) UploadService {
	return &uploadService{store: store, maxBytes: maxBytes}
}

// Upload stores the file under {folder}/{uuid}{ext}. The content type is
// sniffed from the first bytes; the client's declared type is ignored.
func (s *uploadService) Upload(ctx context.Context, folder string, r io.Reader, size int64) (*dto.UploadResponse, error) {
	if folder == "" {
		folder = "other"
	}
	if !UploadFolders[folder] {
		return nil, domain.Invalid("unknown upload folder %q", folder)
	}
	if size <= 0 {
		return nil, domain.Invalid("file is empty")
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, domain.Invalid("file is larger than %d bytes", s.maxBytes)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	mime := http.DetectContentType(head)
	ext, ok := uploadTypes[mime]
	if !ok {
		return nil, domain.Invalid("file type %s is not allowed, use JPEG, PNG, WebP or PDF", mime)
	}

	key := path.Join(folder, uuid.NewString()+ext)
	url, err := s.store.Put(ctx, key, io.MultiReader(bytes.NewReader(head), r), mime, size)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	log.Debug().Str("key", key).Str("backend", s.store.Name()).Int64("size", size).Msg("upload: stored")
	return &dto.UploadResponse{URL: url, Key: key, Size: size, MimeType: mime}, nil
}
