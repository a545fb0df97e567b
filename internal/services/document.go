package services

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/repository"
)

// DocumentUpload carries everything needed to create a document.
type DocumentUpload struct {
	CategoryID  primitive.ObjectID
	FolderID    *primitive.ObjectID
	Title       string
	Description string
	FileName    string
	SizeBytes   int64
	Body        io.Reader
	Published   bool
	Featured    bool
}

// DownloadResult pairs a document record with its payload stream.
type DownloadResult struct {
	Document    *models.Document
	Body        io.ReadCloser
	ContentType string
}

// DocumentService manages the documents of one disclosure domain.
type DocumentService struct {
	domain       models.Domain
	categoryRepo repository.CategoryRepository
	folderRepo   repository.FolderRepository
	documentRepo repository.DocumentRepository
	tree         *TreeService
	storage      StorageProvider
	logger       *pkg.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(domain models.Domain, repos *repository.DomainRepositories, tree *TreeService, storage StorageProvider, logger *pkg.Logger) *DocumentService {
	return &DocumentService{
		domain:       domain,
		categoryRepo: repos.Category,
		folderRepo:   repos.Folder,
		documentRepo: repos.Document,
		tree:         tree,
		storage:      storage,
		logger:       logger,
	}
}

// Upload validates the placement and extension, resolves the canonical storage
// key, stores the payload and creates the record. The key is derived exactly
// once here; renames or moves later never touch the stored blob.
func (s *DocumentService) Upload(ctx context.Context, upload *DocumentUpload) (*models.Document, error) {
	if !s.domain.ExtensionAllowed(models.ExtensionOf(upload.FileName)) {
		return nil, pkg.ErrInvalidExtension.WithDetails(map[string]interface{}{
			"fileName": upload.FileName,
			"allowed":  s.domain.AllowedExtensions,
		})
	}

	category, err := s.categoryRepo.GetByID(ctx, upload.CategoryID)
	if err != nil {
		return nil, err
	}

	var chain []*models.Folder
	if upload.FolderID != nil {
		folder, err := s.folderRepo.GetByID(ctx, *upload.FolderID)
		if err != nil {
			return nil, err
		}
		if folder.CategoryID != category.ID {
			return nil, pkg.ErrCategoryMismatch
		}
		chain, err = s.tree.FolderChain(ctx, folder)
		if err != nil {
			return nil, err
		}
	}

	key := models.ResolveStoragePath(s.domain, category, chain, upload.FileName)
	contentType := pkg.MimeTypeByExtension(models.ExtensionOf(upload.FileName))

	if err := s.storage.Put(ctx, key, upload.Body, upload.SizeBytes, contentType); err != nil {
		return nil, err
	}

	doc := &models.Document{
		CategoryID:  category.ID,
		FolderID:    upload.FolderID,
		Title:       upload.Title,
		Description: upload.Description,
		StorageKey:  key,
		Published:   upload.Published,
		Featured:    upload.Featured,
	}
	doc.ApplyPayload(upload.FileName, upload.SizeBytes)

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// The record failed, so the blob is an orphan; clean it up.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete orphaned blob", map[string]interface{}{
				"key":   key,
				"error": delErr.Error(),
			})
		}
		return nil, err
	}

	s.logger.Info("document uploaded", map[string]interface{}{
		"domain": s.domain.Name,
		"title":  doc.Title,
		"key":    key,
		"size":   doc.SizeBytes,
	})
	return doc, nil
}

// Download streams a published document and bumps its download counter. The
// increment is best-effort: a counter that fails to bump is logged and never
// blocks the file from being served.
func (s *DocumentService) Download(ctx context.Context, id primitive.ObjectID) (*DownloadResult, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.Published {
		return nil, pkg.ErrDocumentNotFound
	}

	if err := s.documentRepo.IncrementDownloadCount(ctx, doc.ID); err != nil {
		s.logger.Warn("failed to increment download count", map[string]interface{}{
			"document": doc.ID.Hex(),
			"error":    err.Error(),
		})
	}

	body, err := s.storage.Get(ctx, doc.StorageKey)
	if err != nil {
		if appErr, ok := pkg.IsAppError(err); ok && appErr.Code == pkg.ErrStorageIntegrity.Code {
			// Record says published, blob store says gone. The client gets a
			// plain not-found; this log line is how operators find out.
			s.logger.Error("published document missing from storage", map[string]interface{}{
				"domain":   s.domain.Name,
				"document": doc.ID.Hex(),
				"key":      doc.StorageKey,
			})
		}
		return nil, err
	}

	return &DownloadResult{
		Document:    doc,
		Body:        body,
		ContentType: pkg.MimeTypeByExtension(doc.Extension),
	}, nil
}

// GetByID returns a document record without visibility filtering, for the
// staff surface.
func (s *DocumentService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	return s.documentRepo.GetByID(ctx, id)
}

// Update applies a partial update to a document record. File payloads are
// immutable; a changed file is a new upload.
func (s *DocumentService) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return s.documentRepo.Update(ctx, id, updates)
}

// Delete removes a document record and its blob.
func (s *DocumentService) Delete(ctx context.Context, id primitive.ObjectID) error {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.documentRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn("failed to delete blob", map[string]interface{}{
			"key":   doc.StorageKey,
			"error": err.Error(),
		})
	}
	return nil
}

// PresignedURL returns a time-limited direct link to a document's payload.
// Staff surface only; the provider must support presigning.
func (s *DocumentService) PresignedURL(ctx context.Context, id primitive.ObjectID, expiry time.Duration) (string, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, doc.StorageKey, expiry)
}

// Search finds published documents by text, category, and extension. A text
// query also matches documents whose category title matches.
func (s *DocumentService) Search(ctx context.Context, search *repository.DocumentSearch, params *pkg.PaginationParams) ([]*models.Document, int64, error) {
	if search.Query != "" {
		ids, err := s.categoryRepo.FindMatchingTitle(ctx, search.Query)
		if err != nil {
			return nil, 0, err
		}
		search.TitleCategoryIDs = ids
	}
	return s.documentRepo.Search(ctx, search, params)
}

// ListFeatured returns the domain's featured documents, newest first.
func (s *DocumentService) ListFeatured(ctx context.Context, categoryID *primitive.ObjectID, limit int64) ([]*models.Document, error) {
	return s.documentRepo.ListFeatured(ctx, categoryID, limit)
}

// ListRecent returns the domain's newest published documents.
func (s *DocumentService) ListRecent(ctx context.Context, categoryID *primitive.ObjectID, limit int64) ([]*models.Document, error) {
	return s.documentRepo.ListRecent(ctx, categoryID, limit)
}

// ListMostDownloaded returns the domain's most downloaded documents.
func (s *DocumentService) ListMostDownloaded(ctx context.Context, limit int64) ([]*models.Document, error) {
	return s.documentRepo.ListMostDownloaded(ctx, limit)
}
