package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/meilisearch/meilisearch-go"
)

const projectSearchLimit = 50

// ProjectIndex keeps project documents in a Meilisearch index.
type ProjectIndex struct {
	client meilisearch.ServiceManager
	index  string
}

func NewProjectIndex(host, apiKey, index string) *ProjectIndex {
	return &ProjectIndex{
		client: meilisearch.New(host, meilisearch.WithAPIKey(apiKey)),
		index:  index,
	}
}

func (p *ProjectIndex) Search(ctx context.Context, query string) ([]entity.ProjectDocument, error) {
	resp, err := p.client.Index(p.index).SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit: projectSearchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch search error: %v", err)
	}

	docs := make([]entity.ProjectDocument, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		doc, err := decodeHit(hit)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// decodeHit round-trips a hit through JSON; hits are maps of raw field values.
func decodeHit(hit any) (entity.ProjectDocument, error) {
	var doc entity.ProjectDocument
	raw, err := json.Marshal(hit)
	if err != nil {
		return doc, fmt.Errorf("encode search hit: %w", err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode search hit: %w", err)
	}
	return doc, nil
}

func (p *ProjectIndex) Upsert(ctx context.Context, doc entity.ProjectDocument) error {
	primaryKey := "id"
	_, err := p.client.Index(p.index).AddDocumentsWithContext(ctx, []entity.ProjectDocument{doc}, &meilisearch.DocumentOptions{PrimaryKey: &primaryKey})
	if err != nil {
		return fmt.Errorf("meilisearch add documents error: %v", err)
	}
	return nil
}

func (p *ProjectIndex) Remove(ctx context.Context, id int) error {
	_, err := p.client.Index(p.index).DeleteDocumentWithContext(ctx, strconv.Itoa(id), nil)
	if err != nil {
		return fmt.Errorf("meilisearch delete document error: %v", err)
	}
	return nil
}
