package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docchat/internal/models"
	"docchat/internal/vectorstore"
)

const DefaultCollection = "docchat"

// ExportManager copies vector store records into a chromem-go collection and
// writes it to a single portable file.
type ExportManager struct {
	db            *chromem.DB
	collection    *chromem.Collection
	compress      bool
	encryptionKey string
}

// NewExportManager creates an in-memory chromem DB with one collection.
// encryptionKey must be empty or 32 bytes.
func NewExportManager(collectionName string, compress bool, encryptionKey string) (*ExportManager, error) {
	if n := len(encryptionKey); n != 0 && n != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", n)
	}
	if collectionName == "" {
		collectionName = DefaultCollection
	}

	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}

	return &ExportManager{
		db:            db,
		collection:    c,
		compress:      compress,
		encryptionKey: encryptionKey,
	}, nil
}

// toDocument maps a record to a chromem document. Chromem normalizes vectors,
// so records with zero magnitude cannot be represented.
func toDocument(r models.Record) (chromem.Document, bool) {
	if vectorstore.CosineSimilarity(r.Embedding, r.Embedding) == 0 {
		return chromem.Document{}, false
	}
	return chromem.Document{
		ID:      strconv.Itoa(r.ID),
		Content: r.Text,
		Metadata: map[string]string{
			"page":   strconv.Itoa(r.Metadata.Page),
			"source": r.Metadata.Source,
		},
		Embedding: append([]float32(nil), r.Embedding...),
	}, true
}

// AddRecords adds records to the collection and returns how many were added.
func (m *ExportManager) AddRecords(ctx context.Context, records []models.Record) (int, error) {
	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		doc, ok := toDocument(r)
		if !ok {
			log.Warn().Int("chunk_id", r.ID).Msg("Skipping zero-magnitude record in export")
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("failed to add documents: %w", err)
	}
	return len(docs), nil
}

// Export writes the collection to filePath.
func (m *ExportManager) Export(filePath string) error {
	log.Debug().
		Str("collection", m.collection.Name).
		Str("file", filePath).
		Bool("compress", m.compress).
		Bool("encrypted", m.encryptionKey != "").
		Msg("Exporting collection")

	if err := m.db.ExportToFile(filePath, m.compress, m.encryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// ExportRecords is AddRecords followed by Export.
func ExportRecords(ctx context.Context, records []models.Record, filePath, encryptionKey string) (int, error) {
	m, err := NewExportManager(DefaultCollection, false, encryptionKey)
	if err != nil {
		return 0, err
	}
	n, err := m.AddRecords(ctx, records)
	if err != nil {
		return 0, err
	}
	if err := m.Export(filePath); err != nil {
		return 0, err
	}
	return n, nil
}
