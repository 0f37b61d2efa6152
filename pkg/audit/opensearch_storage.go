package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// DefaultAuditIndex is the index used when none is configured.
const DefaultAuditIndex = "audit-events"

// auditIndexMapping types identifier fields as keywords. Dynamic mapping
// would analyze them as text and break exact-match filters.
const auditIndexMapping = `{
	"mappings": {
		"properties": {
			"id":          {"type": "keyword"},
			"tenant_id":   {"type": "keyword"},
			"actor":       {"type": "keyword"},
			"session_id":  {"type": "keyword"},
			"action":      {"type": "keyword"},
			"resource":    {"type": "keyword"},
			"resource_id": {"type": "keyword"},
			"result":      {"type": "keyword"},
			"error":       {"type": "text"},
			"request_id":  {"type": "keyword"},
			"ip":          {"type": "keyword"},
			"checksum":    {"type": "keyword"},
			"created_at":  {"type": "date"}
		}
	}
}`

// OpenSearchStorage indexes audit events for full-criteria search across
// large retention windows. Compliance reviews run against this store while
// PostgresStorage serves the hot tenant-facing audit log.
type OpenSearchStorage struct {
	client *opensearch.Client
	index  string
}

// NewOpenSearchStorage creates an OpenSearch-backed audit storage writing to
// the given index. An empty index name falls back to DefaultAuditIndex.
func NewOpenSearchStorage(client *opensearch.Client, index string) *OpenSearchStorage {
	if client == nil {
		panic("audit: opensearch client cannot be nil")
	}
	if index == "" {
		index = DefaultAuditIndex
	}
	return &OpenSearchStorage{client: client, index: index}
}

// EnsureIndex creates the index with explicit mappings when it does not
// exist yet. Call once at startup.
func (s *OpenSearchStorage) EnsureIndex(ctx context.Context) error {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{s.index}}.Do(ctx, s.client)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("%w: index check returned %s", ErrStorageUnavailable, res.Status())
	}

	cres, err := opensearchapi.IndicesCreateRequest{
		Index: s.index,
		Body:  strings.NewReader(auditIndexMapping),
	}.Do(ctx, s.client)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	defer cres.Body.Close()
	if cres.IsError() {
		return fmt.Errorf("%w: index create returned %s", ErrStorageUnavailable, cres.Status())
	}
	return nil
}

func (s *OpenSearchStorage) Store(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Join(ErrInvalidEvent, err)
	}

	res, err := opensearchapi.IndexRequest{
		Index:      s.index,
		DocumentID: event.ID.String(),
		Body:       bytes.NewReader(payload),
	}.Do(ctx, s.client)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: index returned %s", ErrStorageUnavailable, res.Status())
	}
	return nil
}

// StoreBatch indexes all events through the bulk API.
func (s *OpenSearchStorage) StoreBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return errors.Join(ErrInvalidEvent, err)
		}
		fmt.Fprintf(&buf, `{"index":{"_index":%q,"_id":%q}}`+"\n", s.index, event.ID.String())
		buf.Write(payload)
		buf.WriteByte('\n')
	}

	res, err := opensearchapi.BulkRequest{Body: bytes.NewReader(buf.Bytes())}.Do(ctx, s.client)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: bulk returned %s", ErrStorageUnavailable, res.Status())
	}

	var bulk struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	if bulk.Errors {
		return fmt.Errorf("%w: bulk indexing reported item failures", ErrStorageUnavailable)
	}
	return nil
}

func (s *OpenSearchStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	body := map[string]any{
		"query": searchQuery(criteria),
		"sort":  []map[string]any{{"created_at": map[string]any{"order": "desc"}}},
		"from":  criteria.Offset,
		"size":  criteria.limit(),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	res, err := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
	}.Do(ctx, s.client)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: search returned %s", ErrQueryFailed, res.Status())
	}

	var sr struct {
		Hits struct {
			Hits []struct {
				Source Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	events := make([]Event, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		events = append(events, hit.Source)
	}
	return events, nil
}

func (s *OpenSearchStorage) Count(ctx context.Context, criteria Criteria) (int64, error) {
	payload, err := json.Marshal(map[string]any{"query": searchQuery(criteria)})
	if err != nil {
		return 0, errors.Join(ErrQueryFailed, err)
	}

	res, err := opensearchapi.CountRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
	}.Do(ctx, s.client)
	if err != nil {
		return 0, errors.Join(ErrQueryFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("%w: count returned %s", ErrQueryFailed, res.Status())
	}

	var cr struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		return 0, errors.Join(ErrQueryFailed, err)
	}
	return cr.Count, nil
}

// searchQuery translates criteria into a bool filter query.
func searchQuery(c Criteria) map[string]any {
	var filters []map[string]any
	term := func(field, value string) {
		filters = append(filters, map[string]any{"term": map[string]any{field: value}})
	}

	if c.TenantID != "" {
		term("tenant_id", c.TenantID)
	}
	if c.Actor != "" {
		term("actor", c.Actor)
	}
	if c.Action != "" {
		term("action", c.Action)
	}
	if c.Resource != "" {
		term("resource", c.Resource)
	}
	if c.Result != "" {
		term("result", string(c.Result))
	}
	if !c.Since.IsZero() || !c.Until.IsZero() {
		bounds := map[string]any{}
		if !c.Since.IsZero() {
			bounds["gte"] = c.Since.UTC().Format(time.RFC3339Nano)
		}
		if !c.Until.IsZero() {
			bounds["lt"] = c.Until.UTC().Format(time.RFC3339Nano)
		}
		filters = append(filters, map[string]any{"range": map[string]any{"created_at": bounds}})
	}

	if len(filters) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{"bool": map[string]any{"filter": filters}}
}
