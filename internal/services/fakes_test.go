package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/repository"
)

// In-memory fakes mirroring the Mongo repositories' visible behavior,
// including the root/child sort asymmetry and the unique tracking code.

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[primitive.ObjectID]*models.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[primitive.ObjectID]*models.Category)}
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.Code == category.Code || c.Slug == category.Slug {
			return pkg.ErrCategoryAlreadyExists
		}
	}
	category.ID = primitive.NewObjectID()
	r.categories[category.ID] = category
	return nil
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.categories[id]; ok {
		return c, nil
	}
	return nil, pkg.ErrCategoryNotFound
}

func (r *fakeCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, pkg.ErrCategoryNotFound
}

func (r *fakeCategoryRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return pkg.ErrCategoryNotFound
	}
	return nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return pkg.ErrCategoryNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *fakeCategoryRepo) ListActive(ctx context.Context) ([]*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Category
	for _, c := range r.categories {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (r *fakeCategoryRepo) ListAll(ctx context.Context) ([]*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Category
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCategoryRepo) FindMatchingTitle(ctx context.Context, query string) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []primitive.ObjectID
	for _, c := range r.categories {
		if strings.Contains(strings.ToLower(c.ShortTitle), strings.ToLower(query)) {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

type fakeFolderRepo struct {
	mu      sync.Mutex
	folders map[primitive.ObjectID]*models.Folder
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[primitive.ObjectID]*models.Folder)}
}

func (r *fakeFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.CategoryID == folder.CategoryID && sameParent(f.ParentID, folder.ParentID) && f.Name == folder.Name {
			return pkg.ErrFolderAlreadyExists
		}
	}
	folder.ID = primitive.NewObjectID()
	r.folders[folder.ID] = folder
	return nil
}

func (r *fakeFolderRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.folders[id]; ok {
		return f, nil
	}
	return nil, pkg.ErrFolderNotFound
}

func (r *fakeFolderRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return pkg.ErrFolderNotFound
	}
	if raw, ok := updates["parent_id"]; ok {
		if raw == nil {
			f.ParentID = nil
		} else if pid, ok := raw.(primitive.ObjectID); ok {
			f.ParentID = &pid
		}
	}
	if name, ok := updates["name"].(string); ok {
		f.Name = name
	}
	return nil
}

func (r *fakeFolderRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[id]; !ok {
		return pkg.ErrFolderNotFound
	}
	delete(r.folders, id)
	return nil
}

func (r *fakeFolderRepo) ListRoots(ctx context.Context, categoryID primitive.ObjectID) ([]*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Folder
	for _, f := range r.folders {
		if f.CategoryID == categoryID && f.ParentID == nil {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder > out[j].DisplayOrder
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

func (r *fakeFolderRepo) ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Folder
	for _, f := range r.folders {
		if f.ParentID != nil && *f.ParentID == parentID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder > out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *fakeFolderRepo) ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Folder
	for _, f := range r.folders {
		if f.CategoryID == categoryID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder > out[j].DisplayOrder
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

func (r *fakeFolderRepo) CountRoots(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	roots, _ := r.ListRoots(ctx, categoryID)
	return int64(len(roots)), nil
}

func (r *fakeFolderRepo) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	all, _ := r.ListByCategory(ctx, categoryID)
	return int64(len(all)), nil
}

func (r *fakeFolderRepo) CountAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.folders)), nil
}

func (r *fakeFolderRepo) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, f := range r.folders {
		if f.CategoryID == categoryID {
			delete(r.folders, id)
		}
	}
	return nil
}

func (r *fakeFolderRepo) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.folders, id)
	}
	return nil
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type fakeDocumentRepo struct {
	mu        sync.Mutex
	documents map[primitive.ObjectID]*models.Document
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{documents: make(map[primitive.ObjectID]*models.Document)}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc.ID = primitive.NewObjectID()
	doc.PublishedAt = time.Now()
	r.documents[doc.ID] = doc
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.documents[id]; ok {
		copy := *d
		return &copy, nil
	}
	return nil, pkg.ErrDocumentNotFound
}

func (r *fakeDocumentRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.documents[id]; !ok {
		return pkg.ErrDocumentNotFound
	}
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.documents[id]; !ok {
		return pkg.ErrDocumentNotFound
	}
	delete(r.documents, id)
	return nil
}

func (r *fakeDocumentRepo) ListPublishedByFolder(ctx context.Context, categoryID primitive.ObjectID, folderID *primitive.ObjectID) ([]*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Document
	for _, d := range r.documents {
		if !d.Published {
			continue
		}
		if folderID == nil {
			if d.FolderID == nil && d.CategoryID == categoryID {
				out = append(out, d)
			}
		} else if d.FolderID != nil && *d.FolderID == *folderID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Featured != out[j].Featured {
			return out[i].Featured
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out, nil
}

func (r *fakeDocumentRepo) CountPublishedGroupedByFolder(ctx context.Context, categoryID primitive.ObjectID) (map[primitive.ObjectID]int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[primitive.ObjectID]int64)
	var rootCount int64
	for _, d := range r.documents {
		if !d.Published || d.CategoryID != categoryID {
			continue
		}
		if d.FolderID == nil {
			rootCount++
		} else {
			counts[*d.FolderID]++
		}
	}
	return counts, rootCount, nil
}

func (r *fakeDocumentRepo) CountPublishedByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.documents {
		if d.Published && d.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r *fakeDocumentRepo) CountPublished(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.documents {
		if d.Published {
			n++
		}
	}
	return n, nil
}

func (r *fakeDocumentRepo) IncrementDownloadCount(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.documents[id]; ok && d.Published {
		d.DownloadCount++
	}
	return nil
}

func (r *fakeDocumentRepo) Search(ctx context.Context, search *repository.DocumentSearch, params *pkg.PaginationParams) ([]*models.Document, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	titleMatch := make(map[primitive.ObjectID]bool)
	for _, id := range search.TitleCategoryIDs {
		titleMatch[id] = true
	}
	var out []*models.Document
	for _, d := range r.documents {
		if !d.Published {
			continue
		}
		if search.Query != "" {
			q := strings.ToLower(search.Query)
			if !strings.Contains(strings.ToLower(d.Title), q) &&
				!strings.Contains(strings.ToLower(d.Description), q) &&
				!titleMatch[d.CategoryID] {
				continue
			}
		}
		if search.Extension != "" && d.Extension != models.NormalizeExtension(search.Extension) {
			continue
		}
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func (r *fakeDocumentRepo) ListFeatured(ctx context.Context, categoryID *primitive.ObjectID, limit int64) ([]*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Document
	for _, d := range r.documents {
		if d.Published && d.Featured {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) ListRecent(ctx context.Context, categoryID *primitive.ObjectID, limit int64) ([]*models.Document, error) {
	return r.ListFeatured(ctx, categoryID, limit)
}

func (r *fakeDocumentRepo) ListMostDownloaded(ctx context.Context, limit int64) ([]*models.Document, error) {
	return nil, nil
}

func (r *fakeDocumentRepo) TotalDownloads(ctx context.Context, categoryID *primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.documents {
		if !d.Published {
			continue
		}
		if categoryID != nil && d.CategoryID != *categoryID {
			continue
		}
		n += d.DownloadCount
	}
	return n, nil
}

func (r *fakeDocumentRepo) CountByExtension(ctx context.Context, categoryID *primitive.ObjectID) ([]repository.ExtensionCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byExt := make(map[string]int64)
	for _, d := range r.documents {
		if !d.Published {
			continue
		}
		if categoryID != nil && d.CategoryID != *categoryID {
			continue
		}
		byExt[d.Extension]++
	}
	var out []repository.ExtensionCount
	for ext, total := range byExt {
		out = append(out, repository.ExtensionCount{Extension: ext, Total: total})
	}
	return out, nil
}

func (r *fakeDocumentRepo) CountByCategory(ctx context.Context) ([]repository.CategoryCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byCategory := make(map[primitive.ObjectID]*repository.CategoryCount)
	for _, d := range r.documents {
		if !d.Published {
			continue
		}
		b, ok := byCategory[d.CategoryID]
		if !ok {
			b = &repository.CategoryCount{CategoryID: d.CategoryID}
			byCategory[d.CategoryID] = b
		}
		b.Total++
		b.Downloads += d.DownloadCount
	}
	var out []repository.CategoryCount
	for _, b := range byCategory {
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeDocumentRepo) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for id, d := range r.documents {
		if d.CategoryID == categoryID {
			keys = append(keys, d.StorageKey)
			delete(r.documents, id)
		}
	}
	return keys, nil
}

func (r *fakeDocumentRepo) DeleteByFolders(ctx context.Context, folderIDs []primitive.ObjectID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inSet := make(map[primitive.ObjectID]bool)
	for _, id := range folderIDs {
		inSet[id] = true
	}
	var keys []string
	for id, d := range r.documents {
		if d.FolderID != nil && inSet[*d.FolderID] {
			keys = append(keys, d.StorageKey)
			delete(r.documents, id)
		}
	}
	return keys, nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]*models.InfoRequest
	byCode   map[string]primitive.ObjectID
	// failCreates forces this many duplicate-key errors before accepting.
	failCreates int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		requests: make(map[primitive.ObjectID]*models.InfoRequest),
		byCode:   make(map[string]primitive.ObjectID),
	}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *models.InfoRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreates > 0 {
		r.failCreates--
		return pkg.ErrDuplicateTrackingCode
	}
	if _, exists := r.byCode[req.TrackingCode]; exists {
		return pkg.ErrDuplicateTrackingCode
	}
	req.ID = primitive.NewObjectID()
	req.SubmittedAt = time.Now()
	r.requests[req.ID] = req
	r.byCode[req.TrackingCode] = req.ID
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.InfoRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, pkg.ErrRequestNotFound
}

func (r *fakeRequestRepo) GetByTrackingCode(ctx context.Context, code string) (*models.InfoRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]; ok {
		copy := *r.requests[id]
		return &copy, nil
	}
	return nil, pkg.ErrRequestNotFound
}

func (r *fakeRequestRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RequestStatus, answeredAt *time.Time, answerText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return pkg.ErrRequestNotFound
	}
	req.Status = status
	if answeredAt != nil {
		req.AnsweredAt = answeredAt
	}
	if answerText != "" {
		req.AnswerText = answerText
	}
	return nil
}

func (r *fakeRequestRepo) List(ctx context.Context, status models.RequestStatus, params *pkg.PaginationParams) ([]*models.InfoRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.InfoRequest
	for _, req := range r.requests {
		if status == "" || req.Status == status {
			out = append(out, req)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRequestRepo) CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.RequestStatus]int64)
	for _, req := range r.requests {
		counts[req.Status]++
	}
	return counts, nil
}

func (r *fakeRequestRepo) CountOverduePending(ctx context.Context, submittedBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, req := range r.requests {
		if req.Status == models.StatusPending && req.SubmittedAt.Before(submittedBefore) {
			n++
		}
	}
	return n, nil
}

type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[string][]byte)}
}

func (s *fakeStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *fakeStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, pkg.ErrStorageIntegrity
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *fakeStorage) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://example.test/" + key, nil
}

type fakeQueue struct {
	mu       sync.Mutex
	received []string
	status   []string
	staff    []string
}

func (q *fakeQueue) EnqueueRequestReceived(req *models.InfoRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.received = append(q.received, req.TrackingCode)
}

func (q *fakeQueue) EnqueueStatusChanged(req *models.InfoRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.status = append(q.status, req.TrackingCode)
}

func (q *fakeQueue) EnqueueStaffNewRequest(req *models.InfoRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.staff = append(q.staff, req.TrackingCode)
}
