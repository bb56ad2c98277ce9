package meili

import (
	"context"
	"fmt"
	"time"

	"github.com/iksnae/cc-convo/internal"
	"github.com/meilisearch/meilisearch-go"
)

const (
	defaultBatchSize = 500
	taskPollInterval = 500 * time.Millisecond
)

var (
	searchableAttributes = []string{"content", "session_id", "project", "model"}
	filterableAttributes = []interface{}{
		"session_id", "project", "role", "source_record_type", "model", "timestamp_unix",
	}
	sortableAttributes = []string{"timestamp_unix", "position"}
)

// Backend is the part of MeiliSearch the indexer talks to
type Backend interface {
	Healthy() bool
	CreateIndex(uid string) error
	UpdateSearchable(uid string, attrs []string) (int64, error)
	UpdateFilterable(uid string, attrs []interface{}) (int64, error)
	UpdateSortable(uid string, attrs []string) (int64, error)
	AddDocuments(ctx context.Context, uid string, docs []Document) (int64, error)
	WaitForTask(ctx context.Context, taskUID int64) error
}

// Indexer pushes event documents into one MeiliSearch index
type Indexer struct {
	backend   Backend
	index     string
	batchSize int
}

// NewIndexer checks the backend is healthy, then creates and configures the
// index, waiting for each settings task.
func NewIndexer(ctx context.Context, backend Backend, index string) (*Indexer, error) {
	if !backend.Healthy() {
		return nil, fmt.Errorf("meilisearch is not healthy")
	}
	if err := backend.CreateIndex(index); err != nil {
		return nil, fmt.Errorf("create index %q: %w", index, err)
	}

	ix := &Indexer{backend: backend, index: index, batchSize: defaultBatchSize}
	settings := []struct {
		name  string
		apply func() (int64, error)
	}{
		{"searchable attributes", func() (int64, error) { return backend.UpdateSearchable(index, searchableAttributes) }},
		{"filterable attributes", func() (int64, error) { return backend.UpdateFilterable(index, filterableAttributes) }},
		{"sortable attributes", func() (int64, error) { return backend.UpdateSortable(index, sortableAttributes) }},
	}
	for _, s := range settings {
		taskUID, err := s.apply()
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", s.name, err)
		}
		if err := backend.WaitForTask(ctx, taskUID); err != nil {
			return nil, fmt.Errorf("wait for %s: %w", s.name, err)
		}
	}
	return ix, nil
}

// SetBatchSize sets how many documents go in one request
func (ix *Indexer) SetBatchSize(n int) {
	if n > 0 {
		ix.batchSize = n
	}
}

// Index pushes docs in batches and waits for every batch task. It returns
// the number of documents indexed before any failure.
func (ix *Indexer) Index(ctx context.Context, docs []Document) (int, error) {
	indexed := 0
	for start := 0; start < len(docs); start += ix.batchSize {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		end := min(start+ix.batchSize, len(docs))
		batch := docs[start:end]

		taskUID, err := ix.backend.AddDocuments(ctx, ix.index, batch)
		if err != nil {
			return indexed, fmt.Errorf("add documents %d-%d: %w", start, end, err)
		}
		if err := ix.backend.WaitForTask(ctx, taskUID); err != nil {
			return indexed, fmt.Errorf("wait for documents %d-%d: %w", start, end, err)
		}
		indexed += len(batch)
		internal.LogDebug("indexed %d/%d documents into %s", indexed, len(docs), ix.index)
	}
	return indexed, nil
}

// SDKBackend adapts the MeiliSearch Go client to Backend
type SDKBackend struct {
	client meilisearch.ServiceManager
}

// NewSDKBackend connects a client to endpoint
func NewSDKBackend(endpoint, apiKey string) *SDKBackend {
	return &SDKBackend{client: meilisearch.New(endpoint, meilisearch.WithAPIKey(apiKey))}
}

func (b *SDKBackend) Healthy() bool {
	return b.client.IsHealthy()
}

// CreateIndex is idempotent; an existing index resolves the task as a no-op
func (b *SDKBackend) CreateIndex(uid string) error {
	_, err := b.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        uid,
		PrimaryKey: "id",
	})
	return err
}

func (b *SDKBackend) UpdateSearchable(uid string, attrs []string) (int64, error) {
	task, err := b.client.Index(uid).UpdateSearchableAttributes(&attrs)
	if err != nil {
		return 0, err
	}
	return task.TaskUID, nil
}

func (b *SDKBackend) UpdateFilterable(uid string, attrs []interface{}) (int64, error) {
	task, err := b.client.Index(uid).UpdateFilterableAttributes(&attrs)
	if err != nil {
		return 0, err
	}
	return task.TaskUID, nil
}

func (b *SDKBackend) UpdateSortable(uid string, attrs []string) (int64, error) {
	task, err := b.client.Index(uid).UpdateSortableAttributes(&attrs)
	if err != nil {
		return 0, err
	}
	return task.TaskUID, nil
}

func (b *SDKBackend) AddDocuments(ctx context.Context, uid string, docs []Document) (int64, error) {
	pk := "id"
	task, err := b.client.Index(uid).AddDocumentsWithContext(ctx, docs, &meilisearch.DocumentOptions{
		PrimaryKey: &pk,
	})
	if err != nil {
		return 0, err
	}
	return task.TaskUID, nil
}

func (b *SDKBackend) WaitForTask(ctx context.Context, taskUID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	task, err := b.client.WaitForTask(taskUID, taskPollInterval)
	if err != nil {
		return err
	}
	if task.Status == meilisearch.TaskStatusFailed {
		return fmt.Errorf("task %d failed: %s", taskUID, task.Error.Message)
	}
	return nil
}
