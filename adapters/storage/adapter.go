// Package storage persists catalogs, strategies and calculation results.
// Supports multiple backends: memory, file and BoltDB.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"pricing-engine/core/catalog"
	"pricing-engine/core/types"
	"pricing-engine/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendBolt   Backend = "bolt"
)

// Bucket names; one per document kind
const (
	bucketCatalogs   = "catalogs"
	bucketStrategies = "strategies"
	bucketResults    = "results"
)

// Store is the storage interface
type Store interface {
	// SaveCatalog stores a node list under a name, replacing any previous one
	SaveCatalog(ctx context.Context, catalog *StoredCatalog) error

	// GetCatalog retrieves a catalog by name
	GetCatalog(ctx context.Context, name string) (*StoredCatalog, error)

	// ListCatalogs returns catalog names, sorted
	ListCatalogs(ctx context.Context) ([]string, error)

	// SaveStrategy stores a strategy under a name, replacing any previous one
	SaveStrategy(ctx context.Context, strategy *StoredStrategy) error

	// GetStrategy retrieves a strategy by name
	GetStrategy(ctx context.Context, name string) (*StoredStrategy, error)

	// ListStrategies returns strategy names, sorted
	ListStrategies(ctx context.Context) ([]string, error)

	// SaveResult stores a calculation result
	SaveResult(ctx context.Context, result *StoredResult) error

	// GetResult retrieves a result by ID
	GetResult(ctx context.Context, id string) (*StoredResult, error)

	// ListResults lists results with filters
	ListResults(ctx context.Context, filter *ListFilter) ([]*StoredResult, error)

	// DeleteResult removes a result
	DeleteResult(ctx context.Context, id string) error

	// Close closes the store
	Close() error
}

// StoredCatalog is a named node list
type StoredCatalog struct {
	Name      string              `json:"name"`
	Nodes     []types.PricingNode `json:"nodes"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// StoredStrategy is a named strategy
type StoredStrategy struct {
	Name      string                 `json:"name"`
	Strategy  *types.PricingStrategy `json:"strategy"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// StoredResult is a stored calculation
type StoredResult struct {
	// ID is unique identifier
	ID string `json:"id"`

	// RequestID is the request that produced the result
	RequestID string `json:"request_id,omitempty"`

	// Catalog and Strategy name the stored documents used, if any
	Catalog  string `json:"catalog,omitempty"`
	Strategy string `json:"strategy,omitempty"`

	// InputHash identifies nodes, strategy and inputs
	InputHash string `json:"input_hash"`

	// FinalPrice duplicates Result.FinalPrice for filtering
	FinalPrice float64 `json:"final_price"`

	// Inputs are the raw inputs of the calculation
	Inputs []types.Input `json:"inputs,omitempty"`

	// Result is the full engine output
	Result *types.CalculationResult `json:"result"`

	// CreatedAt timestamp
	CreatedAt time.Time `json:"created_at"`

	// Metadata
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListFilter filters result listing
type ListFilter struct {
	Strategy  string
	Catalog   string
	InputHash string
	Since     time.Time
	Until     time.Time
	MinPrice  *float64
	MaxPrice  *float64
	Limit     int
	Offset    int
	OrderDesc bool
}

// matches reports whether r passes every set filter field
func (f *ListFilter) matches(r *StoredResult) bool {
	if f == nil {
		return true
	}
	if f.Strategy != "" && r.Strategy != f.Strategy {
		return false
	}
	if f.Catalog != "" && r.Catalog != f.Catalog {
		return false
	}
	if f.InputHash != "" && r.InputHash != f.InputHash {
		return false
	}
	if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.CreatedAt.After(f.Until) {
		return false
	}
	if f.MinPrice != nil && r.FinalPrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && r.FinalPrice > *f.MaxPrice {
		return false
	}
	return true
}

// page orders results by creation time and applies offset and limit
func (f *ListFilter) page(results []*StoredResult) []*StoredResult {
	desc := f != nil && f.OrderDesc
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})

	if f == nil {
		return results
	}
	if f.Offset > 0 {
		if f.Offset >= len(results) {
			return []*StoredResult{}
		}
		results = results[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(results) {
		results = results[:f.Limit]
	}
	return results
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateName checks a catalog or strategy name
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return errors.Newf(errors.TypeInvalidDocument,
			"invalid name %q: use letters, digits, '.', '_' or '-'", name).
			WithContext("name", name)
	}
	return nil
}

// kv is the byte-level contract a backend provides
type kv interface {
	// put stores value under key in bucket
	put(bucket, key string, value []byte) error

	// get returns the value under key; ok is false when absent
	get(bucket, key string) (value []byte, ok bool, err error)

	// each calls fn for every entry of bucket in key order
	each(bucket string, fn func(key string, value []byte) error) error

	// remove deletes key; ok is false when it was absent
	remove(bucket, key string) (ok bool, err error)

	io.Closer
}

// DocumentStore implements Store on top of a key-value backend.
// Documents are stored as JSON.
type DocumentStore struct {
	backend Backend
	kv      kv
	now     func() time.Time
}

func newDocumentStore(backend Backend, kv kv) *DocumentStore {
	return &DocumentStore{backend: backend, kv: kv, now: time.Now}
}

// Backend returns the backend type
func (s *DocumentStore) Backend() Backend {
	return s.backend
}

func (s *DocumentStore) SaveCatalog(ctx context.Context, c *StoredCatalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(c.Name); err != nil {
		return err
	}
	if errs := catalog.Validate(c.Nodes, catalog.DefaultValidationRules()); len(errs) > 0 {
		return errors.Newf(errors.TypeInvalidDocument, "catalog %s has %d invalid nodes: %v", c.Name, len(errs), errs[0]).
			WithContext("errors", len(errs))
	}
	c.UpdatedAt = s.now().UTC()
	return s.putJSON(bucketCatalogs, c.Name, c)
}

func (s *DocumentStore) GetCatalog(ctx context.Context, name string) (*StoredCatalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var c StoredCatalog
	if err := s.getJSON(bucketCatalogs, "catalog", name, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *DocumentStore) ListCatalogs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.keys(bucketCatalogs)
}

func (s *DocumentStore) SaveStrategy(ctx context.Context, strategy *StoredStrategy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(strategy.Name); err != nil {
		return err
	}
	if strategy.Strategy == nil {
		return errors.InvalidDocument("strategy is required", nil)
	}
	strategy.UpdatedAt = s.now().UTC()
	return s.putJSON(bucketStrategies, strategy.Name, strategy)
}

func (s *DocumentStore) GetStrategy(ctx context.Context, name string) (*StoredStrategy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var st StoredStrategy
	if err := s.getJSON(bucketStrategies, "strategy", name, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *DocumentStore) ListStrategies(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.keys(bucketStrategies)
}

func (s *DocumentStore) SaveResult(ctx context.Context, result *StoredResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.now().UTC()
	}
	if result.Result != nil {
		result.FinalPrice = result.Result.FinalPrice
	}
	return s.putJSON(bucketResults, result.ID, result)
}

func (s *DocumentStore) GetResult(ctx context.Context, id string) (*StoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var r StoredResult
	if err := s.getJSON(bucketResults, "result", id, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *DocumentStore) ListResults(ctx context.Context, filter *ListFilter) ([]*StoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := []*StoredResult{}
	err := s.kv.each(bucketResults, func(key string, value []byte) error {
		var r StoredResult
		if err := json.Unmarshal(value, &r); err != nil {
			return errors.Wrapf(errors.TypeInternal, err, "failed to unmarshal result %s", key)
		}
		if filter.matches(&r) {
			results = append(results, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return filter.page(results), nil
}

func (s *DocumentStore) DeleteResult(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !namePattern.MatchString(id) {
		return errors.NotFound("result", id)
	}
	ok, err := s.kv.remove(bucketResults, id)
	if err != nil {
		return errors.Internal("failed to delete result", err)
	}
	if !ok {
		return errors.NotFound("result", id)
	}
	return nil
}

func (s *DocumentStore) Close() error {
	return s.kv.Close()
}

func (s *DocumentStore) putJSON(bucket, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Internal(fmt.Sprintf("failed to marshal %s/%s", bucket, key), err)
	}
	if err := s.kv.put(bucket, key, data); err != nil {
		return errors.Internal(fmt.Sprintf("failed to write %s/%s", bucket, key), err)
	}
	return nil
}

func (s *DocumentStore) getJSON(bucket, kind, key string, v interface{}) error {
	if !namePattern.MatchString(key) {
		return errors.NotFound(kind, key)
	}
	data, ok, err := s.kv.get(bucket, key)
	if err != nil {
		return errors.Internal(fmt.Sprintf("failed to read %s/%s", bucket, key), err)
	}
	if !ok {
		return errors.NotFound(kind, key)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Internal(fmt.Sprintf("failed to unmarshal %s/%s", bucket, key), err)
	}
	return nil
}

func (s *DocumentStore) keys(bucket string) ([]string, error) {
	keys := []string{}
	err := s.kv.each(bucket, func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, errors.Internal("failed to list "+bucket, err)
	}
	return keys, nil
}

// StoreFactory creates stores by backend type
func StoreFactory(backend Backend, config map[string]string) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendFile:
		path := config["path"]
		if path == "" {
			path = ".pricing-engine"
		}
		return NewFileStore(path)
	case BackendBolt:
		path := config["path"]
		if path == "" {
			path = "pricing-engine.db"
		}
		return NewBoltStore(path)
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported storage backend: %s", backend)
	}
}

// Ensure interfaces are implemented
var _ Store = (*DocumentStore)(nil)
