package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/repository"
)

func newTestDocumentService(catRepo *fakeCategoryRepo, folderRepo *fakeFolderRepo, docRepo *fakeDocumentRepo, storage StorageProvider) *DocumentService {
	repos := &repository.DomainRepositories{
		Category: catRepo,
		Folder:   folderRepo,
		Document: docRepo,
	}
	logger := pkg.NewLogger(pkg.LevelError)
	tree := NewTreeService(models.DomainTransparency, repos, logger)
	return NewDocumentService(models.DomainTransparency, repos, tree, storage, logger)
}

func TestUploadDerivesStorageKeyAndMetadata(t *testing.T) {
	catRepo, folderRepo, docRepo := newFakeCategoryRepo(), newFakeFolderRepo(), newFakeDocumentRepo()
	storage := newFakeStorage()
	category, folders := seedYearTree(t, catRepo, folderRepo, docRepo)
	svc := newTestDocumentService(catRepo, folderRepo, docRepo, storage)

	eneroID := folders["Enero"].ID
	doc, err := svc.Upload(context.Background(), &DocumentUpload{
		CategoryID: category.ID,
		FolderID:   &eneroID,
		Title:      "Acta municipal",
		FileName:   "acta 01.pdf",
		SizeBytes:  4,
		Body:       strings.NewReader("data"),
		Published:  true,
	})
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	wantKey := "transparencia/category_7/2024/Enero/acta_01.pdf"
	if doc.StorageKey != wantKey {
		t.Errorf("StorageKey = %q, want %q", doc.StorageKey, wantKey)
	}
	if doc.Extension != "PDF" {
		t.Errorf("Extension = %q, want PDF", doc.Extension)
	}
	if _, err := storage.Get(context.Background(), wantKey); err != nil {
		t.Errorf("blob missing after upload: %v", err)
	}
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	catRepo, folderRepo, docRepo := newFakeCategoryRepo(), newFakeFolderRepo(), newFakeDocumentRepo()
	category, _ := seedYearTree(t, catRepo, folderRepo, docRepo)
	svc := newTestDocumentService(catRepo, folderRepo, docRepo, newFakeStorage())

	_, err := svc.Upload(context.Background(), &DocumentUpload{
		CategoryID: category.ID,
		Title:      "Ejecutable",
		FileName:   "malware.exe",
		SizeBytes:  4,
		Body:       strings.NewReader("data"),
	})
	if !errors.Is(err, pkg.ErrInvalidExtension) {
		t.Errorf("Upload(exe) error = %v, want ErrInvalidExtension", err)
	}
}

func TestUploadRejectsFolderFromOtherCategory(t *testing.T) {
	catRepo, folderRepo, docRepo := newFakeCategoryRepo(), newFakeFolderRepo(), newFakeDocumentRepo()
	_, folders := seedYearTree(t, catRepo, folderRepo, docRepo)
	svc := newTestDocumentService(catRepo, folderRepo, docRepo, newFakeStorage())
	ctx := context.Background()

	other := &models.Category{Code: "8", ShortTitle: "Otro", Active: true}
	other.Normalize()
	if err := catRepo.Create(ctx, other); err != nil {
		t.Fatal(err)
	}

	eneroID := folders["Enero"].ID
	_, err := svc.Upload(ctx, &DocumentUpload{
		CategoryID: other.ID,
		FolderID:   &eneroID,
		Title:      "Cruce",
		FileName:   "doc.pdf",
		SizeBytes:  4,
		Body:       strings.NewReader("data"),
	})
	if !errors.Is(err, pkg.ErrCategoryMismatch) {
		t.Errorf("Upload(cross-category folder) error = %v, want ErrCategoryMismatch", err)
	}
}

func TestDownloadUnpublishedIsNotFound(t *testing.T) {
	catRepo, folderRepo, docRepo := newFakeCategoryRepo(), newFakeFolderRepo(), newFakeDocumentRepo()
	category, _ := seedYearTree(t, catRepo, folderRepo, docRepo)
	svc := newTestDocumentService(catRepo, folderRepo, docRepo, newFakeStorage())
	ctx := context.Background()

	doc := &models.Document{CategoryID: category.ID, Title: "Borrador", Published: false, StorageKey: "k"}
	if err := docRepo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Download(ctx, doc.ID)
	if !errors.Is(err, pkg.ErrDocumentNotFound) {
		t.Errorf("Download(unpublished) error = %v, want ErrDocumentNotFound", err)
	}
}

func TestDownloadMissingBlobIsStorageIntegrity(t *testing.T) {
	catRepo, folderRepo, docRepo := newFakeCategoryRepo(), newFakeFolderRepo(), newFakeDocumentRepo()
	category, _ := seedYearTree(t, catRepo, folderRepo, docRepo)
	svc := newTestDocumentService(catRepo, folderRepo, docRepo, newFakeStorage())
	ctx := context.Background()

	doc := &models.Document{CategoryID: category.ID, Title: "Fantasma", Published: true, StorageKey: "gone"}
	if err := docRepo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Download(ctx, doc.ID)
	appErr, ok := pkg.IsAppError(err)
	if !ok || appErr.Code != pkg.ErrStorageIntegrity.Code {
		t.Fatalf("Download(missing blob) error = %v, want storage integrity", err)
	}
	// Clients must not be able to tell a gone blob from an absent record.
	if appErr.StatusCode != pkg.ErrDocumentNotFound.StatusCode {
		t.Errorf("status = %d, want %d", appErr.StatusCode, pkg.ErrDocumentNotFound.StatusCode)
	}
}

func TestConcurrentDownloadsCountExactly(t *testing.T) {
	catRepo, folderRepo, docRepo := newFakeCategoryRepo(), newFakeFolderRepo(), newFakeDocumentRepo()
	storage := newFakeStorage()
	category, _ := seedYearTree(t, catRepo, folderRepo, docRepo)
	svc := newTestDocumentService(catRepo, folderRepo, docRepo, storage)
	ctx := context.Background()

	doc := &models.Document{CategoryID: category.ID, Title: "Popular", Published: true, StorageKey: "popular.pdf"}
	if err := docRepo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if err := storage.Put(ctx, "popular.pdf", strings.NewReader("data"), 4, "application/pdf"); err != nil {
		t.Fatal(err)
	}

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			result, err := svc.Download(ctx, doc.ID)
			if err != nil {
				t.Errorf("Download() error: %v", err)
				return
			}
			io.Copy(io.Discard, result.Body)
			result.Body.Close()
		}()
	}
	wg.Wait()

	after, err := docRepo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.DownloadCount != n {
		t.Errorf("DownloadCount = %d, want %d", after.DownloadCount, n)
	}
}

func TestPresignedURLUsesStorageKey(t *testing.T) {
	catRepo, folderRepo, docRepo := newFakeCategoryRepo(), newFakeFolderRepo(), newFakeDocumentRepo()
	category, _ := seedYearTree(t, catRepo, folderRepo, docRepo)
	svc := newTestDocumentService(catRepo, folderRepo, docRepo, newFakeStorage())
	ctx := context.Background()

	doc := &models.Document{CategoryID: category.ID, Title: "Informe", Published: true, StorageKey: "transparencia/category_7/informe.pdf"}
	if err := docRepo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}

	url, err := svc.PresignedURL(ctx, doc.ID, 15*time.Minute)
	if err != nil {
		t.Fatalf("PresignedURL() error: %v", err)
	}
	if want := "https://example.test/" + doc.StorageKey; url != want {
		t.Errorf("PresignedURL() = %q, want %q", url, want)
	}

	if _, err := svc.PresignedURL(ctx, primitive.NewObjectID(), 15*time.Minute); !errors.Is(err, pkg.ErrDocumentNotFound) {
		t.Errorf("PresignedURL(unknown id) error = %v, want ErrDocumentNotFound", err)
	}
}

func TestSearchMatchesCategoryTitle(t *testing.T) {
	catRepo, folderRepo, docRepo := newFakeCategoryRepo(), newFakeFolderRepo(), newFakeDocumentRepo()
	category, _ := seedYearTree(t, catRepo, folderRepo, docRepo)
	svc := newTestDocumentService(catRepo, folderRepo, docRepo, newFakeStorage())

	// "Presupuesto" appears only in the category title, never in document
	// titles; the search must still surface the category's documents.
	docs, total, err := svc.Search(context.Background(), &repository.DocumentSearch{Query: "Presupuesto"}, &pkg.PaginationParams{Page: 1, Limit: 20, Sort: "published_at", Order: "desc"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if total == 0 || len(docs) == 0 {
		t.Error("Search(category title) returned nothing")
	}
	for _, d := range docs {
		if d.CategoryID != category.ID {
			t.Errorf("document %q from unexpected category", d.Title)
		}
	}
}
