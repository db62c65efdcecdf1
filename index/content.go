package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// ContentIndex is an in-memory full-text index over text assets. Bleve narrows
// the candidate set by token; the raw content kept alongside confirms the
// literal match.
type ContentIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	// fileContents stores raw content for literal verification
	fileContents map[string]string // key: project path, value: file content
}

// NewContentIndex creates a new in-memory Bleve content index.
func NewContentIndex() (*ContentIndex, error) {
	bleveIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}

	return &ContentIndex{
		index:        bleveIndex,
		fileContents: make(map[string]string),
	}, nil
}

// bleveDocument is the document structure stored in Bleve.
type bleveDocument struct {
	Content string `json:"content"`
	Path    string `json:"path"`
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Store = false
	contentFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("content", contentFieldMapping)

	pathFieldMapping := bleve.NewKeywordFieldMapping()
	pathFieldMapping.Store = true
	pathFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("path", pathFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// IndexFile adds or replaces a file's content.
func (ci *ContentIndex) IndexFile(projectPath string, content string) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	ci.fileContents[projectPath] = content
	if err := ci.index.Index(projectPath, bleveDocument{Content: content, Path: projectPath}); err != nil {
		return fmt.Errorf("indexing file %s: %w", projectPath, err)
	}
	return nil
}

// RemoveFile removes a file from the index.
func (ci *ContentIndex) RemoveFile(projectPath string) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	delete(ci.fileContents, projectPath)
	if err := ci.index.Delete(projectPath); err != nil {
		return fmt.Errorf("removing file %s from index: %w", projectPath, err)
	}
	return nil
}

// FindContaining returns the project paths whose content contains term
// literally, sorted. The term must consist of whole tokens of the content.
func (ci *ContentIndex) FindContaining(term string) ([]string, error) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	term = strings.TrimSpace(term)
	if term == "" || len(ci.fileContents) == 0 {
		return nil, nil
	}

	matchQuery := bleve.NewMatchQuery(term)
	matchQuery.SetField("content")
	matchQuery.SetOperator(query.MatchQueryOperatorAnd)

	searchRequest := bleve.NewSearchRequestOptions(matchQuery, len(ci.fileContents), 0, false)
	searchResults, err := ci.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	paths := make([]string, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		content, ok := ci.fileContents[hit.ID]
		if !ok || !strings.Contains(content, term) {
			continue
		}
		paths = append(paths, hit.ID)
	}
	sort.Strings(paths)
	return paths, nil
}

// DocumentCount returns the number of indexed files.
func (ci *ContentIndex) DocumentCount() int {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return len(ci.fileContents)
}

// Clear removes every document by replacing the underlying index.
func (ci *ContentIndex) Clear() error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating bleve index: %w", err)
	}

	ci.mu.Lock()
	old := ci.index
	ci.index = fresh
	ci.fileContents = make(map[string]string)
	ci.mu.Unlock()

	return old.Close()
}

// Close releases the Bleve index.
func (ci *ContentIndex) Close() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.index.Close()
}

// IsBinaryContent reports whether data looks binary: a NUL byte within the
// first 512 bytes.
func IsBinaryContent(data []byte) bool {
	checkSize := 512
	if len(data) < checkSize {
		checkSize = len(data)
	}
	for i := 0; i < checkSize; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}
