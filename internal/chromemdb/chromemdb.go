package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/models"
)

const (
	MetaSource  = "source"
	MetaPage    = "page"
	MetaChunkID = "chunk_id"
)

var ErrAlreadyIndexed = errors.New("collection already holds documents")

// VectorDBManager encapsulates the chromem-go database operations. The
// collection is filled once and only read afterwards.
type VectorDBManager struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewVectorDBManager creates an in-memory database with one collection whose
// query embeddings come from embed.
func NewVectorDBManager(collectionName string, embed chromem.EmbeddingFunc) (*VectorDBManager, error) {
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &VectorDBManager{db: db, collection: c}, nil
}

// DocumentID is the stable id of a chunk inside the collection.
func DocumentID(pageNumber, chunkID int) string {
	return fmt.Sprintf("p%d-c%d", pageNumber, chunkID)
}

// CreateDocs adds every chunk with its precomputed embedding.
func (m *VectorDBManager) CreateDocs(ctx context.Context, chunkEmbeddings []models.ChunkEmbedding) error {
	if m.collection.Count() > 0 {
		return ErrAlreadyIndexed
	}

	docs := make([]chromem.Document, len(chunkEmbeddings))
	for i, ce := range chunkEmbeddings {
		docs[i] = chromem.Document{
			ID:      DocumentID(ce.PageNumber, ce.ChunkID),
			Content: ce.Content,
			Metadata: map[string]string{
				MetaSource:  ce.SourceFilename,
				MetaPage:    strconv.Itoa(ce.PageNumber),
				MetaChunkID: strconv.Itoa(ce.ChunkID),
			},
			Embedding: ce.Embedding,
		}
	}

	log.Debug().Int("documents", len(docs)).Str("collection", m.collection.Name).Msg("Adding documents")
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (m *VectorDBManager) Count() int {
	return m.collection.Count()
}

// SearchWithQueryOptions runs a similarity search; NResults is clamped to the
// number of stored documents.
func (m *VectorDBManager) SearchWithQueryOptions(ctx context.Context, opts chromem.QueryOptions) ([]chromem.Result, error) {
	// exit if query or embedding is not provided
	if opts.QueryText == "" && opts.QueryEmbedding == nil {
		return nil, errors.New("either query or embedding must be provided")
	}
	if opts.NResults <= 0 {
		return nil, fmt.Errorf("number of results must be positive, got %d", opts.NResults)
	}

	count := m.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if opts.NResults > count {
		opts.NResults = count
	}

	results, err := m.collection.QueryWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

// ChunkFromResult rebuilds the stored chunk of a query result.
func ChunkFromResult(r chromem.Result) models.Chunk {
	page, _ := strconv.Atoi(r.Metadata[MetaPage])
	chunkID, _ := strconv.Atoi(r.Metadata[MetaChunkID])
	return models.Chunk{
		Content:    r.Content,
		PageNumber: page,
		ChunkID:    chunkID,
	}
}
