package rewritecache

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/wbrown/hybridgraph/pushdown"
	"github.com/wbrown/hybridgraph/tsquery"
)

// Cache is a Badger-backed Plan cache. A cache failure never surfaces to
// the caller: Get reports a miss and Put is a no-op, each logging the
// underlying error, so orchestrator's pipeline runs exactly as it would
// with no cache configured.
type Cache struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens (creating if necessary) a Badger database at path for use as
// a rewrite cache. Options mirror datalog/storage.NewBadgerStore's
// performance defaults, scaled down since cached values here are small
// serialized plans rather than a full datom index.
func Open(path string, logger *zap.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("rewritecache: opening badger at %s: %w", path, err)
	}
	return &Cache{db: db, logger: logger}, nil
}

// Close releases the underlying Badger database.
func (c *Cache) Close() error { return c.db.Close() }

// Get looks up the cached Plan for (queryText, settings). A miss, or any
// error reading/decoding the stored value, is reported as (_, false)
// rather than an error — see the fail-open note on Cache. The returned
// Plan's Basics are fresh clones with IDs reset to nil: a cached Basic
// must never carry over the previous request's identifier resolution.
func (c *Cache) Get(queryText string, settings pushdown.Settings) (Plan, bool) {
	key := cacheKey(queryText, settings)
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			c.logger.Warn("rewritecache: get failed, treating as miss", zap.Error(err))
		}
		return Plan{}, false
	}

	var plan Plan
	if err := gob.NewDecoder(bytes.NewReader(value)).Decode(&plan); err != nil {
		c.logger.Warn("rewritecache: decode failed, treating as miss", zap.Error(err))
		return Plan{}, false
	}
	plan.Basics = cloneBasics(plan.Basics)
	return plan, true
}

// Put stores plan under (queryText, settings). Encoding or write failures
// are logged, not returned, per Cache's fail-open contract.
func (c *Cache) Put(queryText string, settings pushdown.Settings, plan Plan) {
	key := cacheKey(queryText, settings)
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(plan); err != nil {
		c.logger.Warn("rewritecache: encode failed, not caching", zap.Error(err))
		return
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf.Bytes())
	})
	if err != nil {
		c.logger.Warn("rewritecache: put failed", zap.Error(err))
	}
}

func cacheKey(queryText string, settings pushdown.Settings) []byte {
	return []byte(fmt.Sprintf("plan:gb=%t:vc=%t:%s",
		settings.GroupByEnabled(), settings.ValueConditionsEnabled(), queryText))
}

func cloneBasics(basics []*tsquery.Basic) []*tsquery.Basic {
	out := make([]*tsquery.Basic, len(basics))
	for i, b := range basics {
		clone := *b
		clone.IDs = nil
		out[i] = &clone
	}
	return out
}
