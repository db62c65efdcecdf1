package refs

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Coordinator runs batch reference queries. Calls to Run are serialized and
// identifiers within a batch are searched one at a time, so at most one
// backend process is alive at any moment.
type Coordinator struct {
	mu         sync.Mutex
	backend    Backend
	resolver   AssetResolver
	filter     *ResultFilter
	index      *ReferenceIndex
	lastRules  *ExclusionRules // rules the cached records were filtered with
	searchRoot string
	logger     *slog.Logger
}

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	ProjectRoot string // directory containing Assets/
	SearchRoot  string // directory the backend searches, usually <ProjectRoot>/Assets
	Backend     Backend
	Resolver    AssetResolver
	Index       *ReferenceIndex // optional; a fresh index is created when nil
	Logger      *slog.Logger
}

// NewCoordinator creates a query coordinator.
func NewCoordinator(options CoordinatorOptions) *Coordinator {
	index := options.Index
	if index == nil {
		index = NewReferenceIndex()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	searchRoot := options.SearchRoot
	if searchRoot == "" {
		searchRoot = options.ProjectRoot
	}

	return &Coordinator{
		backend:  options.Backend,
		resolver: options.Resolver,
		filter: &ResultFilter{
			ProjectRoot: options.ProjectRoot,
			Resolver:    options.Resolver,
		},
		index:      index,
		searchRoot: searchRoot,
		logger:     logger,
	}
}

// Run searches references for every identifier, in input order. rules must be
// non-nil; a nil rules value aborts the batch with ErrConfigurationMissing.
// With useCache false every identifier is recomputed and nothing is written
// to the cache. Cached records are dropped when rules differ from the
// previous call.
func (c *Coordinator) Run(identifiers []string, rules *ExclusionRules, advisory string, useCache bool) (*AggregateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rules == nil {
		return nil, ErrConfigurationMissing
	}
	c.trackRules(*rules)

	start := time.Now()
	result := &AggregateResult{
		Records:  make([]SearchRecord, 0, len(identifiers)),
		Advisory: advisory,
	}

	for _, identifier := range identifiers {
		var record SearchRecord
		if useCache {
			record = c.index.Lookup(identifier, func() SearchRecord {
				return c.compute(identifier, *rules)
			})
		} else {
			record = c.compute(identifier, *rules)
		}
		record.References = slices.Clone(record.References)
		result.Records = append(result.Records, record)
	}

	c.logger.Debug("reference query complete",
		"identifiers", len(identifiers),
		"useCache", useCache,
		"elapsed", time.Since(start),
	)
	return result, nil
}

// trackRules clears the cache when the exclusion rules changed since the
// last batch.
func (c *Coordinator) trackRules(rules ExclusionRules) {
	if c.lastRules != nil && !c.lastRules.Equal(rules) {
		c.logger.Debug("exclusion rules changed, clearing reference cache")
		c.index.Clear()
	}
	c.lastRules = &ExclusionRules{
		ExcludedExtensions: slices.Clone(rules.ExcludedExtensions),
		ExcludedFilenames:  slices.Clone(rules.ExcludedFilenames),
	}
}

// compute resolves the subject and searches it without touching the cache.
// Identifiers that do not resolve to an asset are reported with an empty
// reference list and never reach the backend.
func (c *Coordinator) compute(identifier string, rules ExclusionRules) SearchRecord {
	record := SearchRecord{
		Identifier: identifier,
		References: []AssetReference{},
	}

	subject, ok := c.resolve(identifier)
	if !ok {
		c.logger.Debug("identifier does not resolve to an asset", "identifier", identifier)
		return record
	}
	record.Subject = subject
	record.SubjectExists = c.resolver.Exists(subject)

	rawPaths := c.backend.Search(identifier, c.searchRoot, rules)
	record.References = c.filter.Apply(subject, rawPaths, rules)

	c.logger.Debug("searched references",
		"identifier", identifier,
		"subject", subject,
		"raw", len(rawPaths),
		"references", len(record.References),
	)
	return record
}

func (c *Coordinator) resolve(identifier string) (string, bool) {
	if c.resolver == nil || identifier == "" {
		return "", false
	}
	return c.resolver.Resolve(identifier)
}

// ClearCache evicts every cached search record.
func (c *Coordinator) ClearCache() {
	c.index.Clear()
}

// CacheStats reports reference cache usage.
func (c *Coordinator) CacheStats() IndexStats {
	return c.index.Stats()
}

