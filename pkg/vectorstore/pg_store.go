package vectorstore

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// knowledgeChunk is the pgvector-backed row for one embedded chunk.
type knowledgeChunk struct {
	ID        string          `gorm:"primaryKey;column:id"`
	Source    string          `gorm:"column:source;index"`
	Title     string          `gorm:"column:title"`
	Text      string          `gorm:"column:text"`
	Offset    int             `gorm:"column:chunk_offset"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(768)"`
	Position  int64           `gorm:"column:position;autoIncrement"`
}

func (knowledgeChunk) TableName() string {
	return "knowledge_chunks"
}

// PgStore keeps the index in Postgres with the pgvector extension. Chunk ids
// are deterministic, so re-ingesting the same corpus upserts in place.
type PgStore struct {
	db *gorm.DB
}

func NewPgStore(db *gorm.DB) (*PgStore, error) {
	if err := db.AutoMigrate(&knowledgeChunk{}); err != nil {
		return nil, fmt.Errorf("failed to migrate knowledge_chunks: %w", err)
	}
	return &PgStore{db: db}, nil
}

func (s *PgStore) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]knowledgeChunk, len(chunks))
	for i, c := range chunks {
		rows[i] = knowledgeChunk{
			ID:        c.ID,
			Source:    c.Source,
			Title:     c.Title,
			Text:      c.Text,
			Offset:    c.Offset,
			Embedding: pgvector.NewVector(c.Embedding),
		}
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		CreateInBatches(rows, 100).Error
}

func (s *PgStore) Count(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&knowledgeChunk{}).Count(&count).Error
	return int(count), err
}

func (s *PgStore) Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	var rows []struct {
		knowledgeChunk
		Distance float64 `gorm:"column:distance"`
	}

	// Cosine distance, with insertion order breaking ties.
	err := s.db.WithContext(ctx).
		Model(&knowledgeChunk{}).
		Select("*, embedding <=> ? AS distance", pgvector.NewVector(query)).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "embedding <=> ?, position ASC",
			Vars: []interface{}{pgvector.NewVector(query)},
		}}).
		Limit(topK).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(rows))
	for i, row := range rows {
		results[i] = SearchResult{
			Chunk: Chunk{
				ID:        row.ID,
				Source:    row.Source,
				Title:     row.Title,
				Text:      row.Text,
				Offset:    row.Offset,
				Embedding: row.Embedding.Slice(),
			},
			Score: 1 - row.Distance,
		}
	}
	return results, nil
}

// Clear drops every chunk for a source so a rebuild starts clean.
func (s *PgStore) Clear(ctx context.Context, source string) error {
	return s.db.WithContext(ctx).
		Where("source = ?", source).
		Delete(&knowledgeChunk{}).Error
}
