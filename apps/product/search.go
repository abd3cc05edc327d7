package product

import (
	"context"
	"fmt"
	"strconv"

	"go-boutique/apps/product/model"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"
)

const searchLimit = 500

// ElasticSearcher matches product name and description in an Elasticsearch index.
type ElasticSearcher struct {
	client *elastic.Client
	index  string
	log    *zap.Logger
}

type productDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Available   bool   `json:"available"`
}

func NewElasticSearcher(url, index string, log *zap.Logger) (*ElasticSearcher, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to elasticsearch: %w", err)
	}
	return &ElasticSearcher{client: client, index: index, log: log.Named("search")}, nil
}

func (s *ElasticSearcher) Search(ctx context.Context, query string) ([]uint, error) {
	q := elastic.NewMultiMatchQuery(query, "name^2", "description").
		Type("best_fields").
		Fuzziness("AUTO")

	res, err := s.client.Search().
		Index(s.index).
		Query(q).
		FetchSource(false).
		Size(searchLimit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		id, err := strconv.ParseUint(hit.Id, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// Index writes (or replaces) the search document of p.
func (s *ElasticSearcher) Index(ctx context.Context, p model.Product) error {
	_, err := s.client.Index().
		Index(s.index).
		Id(strconv.FormatUint(uint64(p.ID), 10)).
		BodyJson(toDoc(p)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("indexing product %d: %w", p.ID, err)
	}
	return nil
}

// Reindex pushes every product into the index, creating it when missing.
func (s *ElasticSearcher) Reindex(ctx context.Context, products []model.Product) error {
	exists, err := s.client.IndexExists(s.index).Do(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := s.client.CreateIndex(s.index).Do(ctx); err != nil {
			return fmt.Errorf("creating index %s: %w", s.index, err)
		}
	}

	if len(products) == 0 {
		return nil
	}
	bulk := s.client.Bulk().Index(s.index)
	for _, p := range products {
		bulk.Add(elastic.NewBulkIndexRequest().
			Id(strconv.FormatUint(uint64(p.ID), 10)).
			Doc(toDoc(p)))
	}
	res, err := bulk.Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk indexing: %w", err)
	}
	if failed := res.Failed(); len(failed) > 0 {
		s.log.Warn("some products were not indexed", zap.Int("failed", len(failed)))
	}
	s.log.Info("catalog reindexed", zap.Int("products", len(products)))
	return nil
}

func toDoc(p model.Product) productDoc {
	return productDoc{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category.Name,
		Available:   p.Available,
	}
}
