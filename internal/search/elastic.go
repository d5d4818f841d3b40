package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"soko_back_end/internal/models"
)

const productIndex = "products"

// Pondérations de pertinence du moteur de recherche produit :
// le nom pèse le plus lourd, puis les tags, puis la description.
var searchFields = []string{"name^10", "tags^5", "description"}

// Service encapsule l'indexation et la recherche plein texte des produits.
type Service struct {
	client *elasticsearch.Client
	log    *zap.SugaredLogger
}

func NewService(client *elasticsearch.Client, log *zap.SugaredLogger) *Service {
	return &Service{client: client, log: log}
}

// EnsureIndex crée l'index produits avec son mapping s'il n'existe pas.
func (s *Service) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{productIndex}}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("vérification index: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping := `{
		"mappings": {
			"properties": {
				"name":        { "type": "text" },
				"description": { "type": "text" },
				"tags":        { "type": "text" },
				"slug":        { "type": "keyword" },
				"sku":         { "type": "keyword" },
				"category_id": { "type": "keyword" },
				"price":       { "type": "double" },
				"is_active":   { "type": "boolean" }
			}
		}
	}`

	createRes, err := esapi.IndicesCreateRequest{
		Index: productIndex,
		Body:  strings.NewReader(mapping),
	}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("création index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("création index: %s", createRes.String())
	}
	s.log.Infof("✅ Index Elasticsearch '%s' créé", productIndex)
	return nil
}

// IndexProduct indexe (ou réindexe) un produit.
func (s *Service) IndexProduct(ctx context.Context, p models.Product) {
	if s.client == nil {
		s.log.Warnf("⚠️ Elastic non initialisé, impossible d'indexer: %s", p.Name)
		return
	}

	data, _ := json.Marshal(p)
	req := esapi.IndexRequest{
		Index:      productIndex,
		DocumentID: p.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		s.log.Errorf("❌ Erreur envoi Elastic: %v", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		s.log.Warnf("⚠️ Elastic a renvoyé une erreur pour %s: %s", p.Name, res.String())
	} else {
		s.log.Infof("✅ Produit indexé dans Elasticsearch: %s", p.Name)
	}
}

// RemoveProduct retire un produit de l'index.
func (s *Service) RemoveProduct(ctx context.Context, id string) {
	res, err := esapi.DeleteRequest{Index: productIndex, DocumentID: id}.Do(ctx, s.client)
	if err != nil {
		s.log.Errorf("❌ Erreur suppression Elastic: %v", err)
		return
	}
	res.Body.Close()
}

// SearchProducts effectue une recherche pondérée sur nom, tags et description.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]map[string]interface{}, error) {
	if s.client == nil {
		return nil, errors.New("client Elasticsearch non initialisé")
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": searchFields,
			},
		},
	}

	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{productIndex},
		Body:  &buf,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		json.NewDecoder(res.Body).Decode(&e)
		s.log.Errorf("❌ Elasticsearch erreur: %+v", e)
		return nil, errors.New("index non trouvé ou vide")
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}

	hitsData, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("réponse Elastic invalide (pas de hits)")
	}

	hitsArray, ok := hitsData["hits"].([]interface{})
	if !ok {
		return nil, errors.New("aucun résultat trouvé")
	}

	results := make([]map[string]interface{}, 0, len(hitsArray))
	for _, hit := range hitsArray {
		hitMap, _ := hit.(map[string]interface{})
		if source, ok := hitMap["_source"].(map[string]interface{}); ok {
			results = append(results, source)
		}
	}

	return results, nil
}
