package tools

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentrules/rule-lint/internal/indexing"
	"github.com/agentrules/rule-lint/internal/pipeline"
)

const (
	maxSearchResults = 10
	indexDir         = "search/index"
	lockFile         = "search/index.lock"
	lockTimeout      = 5 * time.Second
	lockRetryWait    = 500 * time.Millisecond

	indexVersionFile = "search/.index_version"
	corpusRootFile   = "search/.corpus_root"
)

var (
	dataDir    string // Data directory for the search index
	corpusRoot string // Root of the rule corpus being indexed
)

func init() {
	// Prefer ~/.rule-lint; fall back to the working directory when the
	// home directory is unavailable or not writable
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userDataDir := filepath.Join(homeDir, ".rule-lint")

		if info, err := os.Stat(userDataDir); err == nil && info.IsDir() {
			dataDir = userDataDir
			return
		}
		if err := os.MkdirAll(userDataDir, 0755); err == nil {
			dataDir = userDataDir
			os.MkdirAll(filepath.Join(dataDir, "search"), 0755)
			return
		}
		log.Printf("Warning: Could not create user data directory at %s: %v", userDataDir, err)
	} else {
		log.Printf("Warning: Could not determine user home directory: %v", err)
	}

	dataDir = filepath.Join(".", ".rule-lint")
	log.Printf("Data directory (fallback): %s", dataDir)
	os.MkdirAll(filepath.Join(dataDir, "search"), 0755)
}

// SetCorpusRoot sets the rule corpus directory used to build the search index.
// Must be called before InitializeRuleSearch or the first search.
func SetCorpusRoot(root string) {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	corpusRoot = abs
}

// CorpusRoot returns the configured rule corpus directory, falling back to
// the root recorded by the last successful index build.
func CorpusRoot() string {
	if corpusRoot != "" {
		return corpusRoot
	}
	data, err := os.ReadFile(filepath.Join(dataDir, corpusRootFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// isProcessRunning is implemented in rulesearch_unix.go and
// rulesearch_windows.go.

// cleanStaleLock removes the lock file if the owning process is dead
func cleanStaleLock() error {
	lockPath := filepath.Join(dataDir, lockFile)

	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		log.Printf("Warning: Corrupted lock file (invalid PID), removing...")
		return os.Remove(lockPath)
	}

	if isProcessRunning(pid) {
		return fmt.Errorf("lock held by running process %d", pid)
	}

	log.Printf("Stale lock detected (PID %d not running), cleaning...", pid)
	return os.Remove(lockPath)
}

// acquireLock attempts to acquire the index lock with retry. Reentrant for
// the owning process.
func acquireLock() error {
	lockPath := filepath.Join(dataDir, lockFile)
	ourPID := os.Getpid()

	if data, err := os.ReadFile(lockPath); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid == ourPID {
			return nil
		}
	}

	startTime := time.Now()
	for {
		if err := cleanStaleLock(); err != nil {
			elapsed := time.Since(startTime)
			if elapsed >= lockTimeout {
				return fmt.Errorf("timeout waiting for index lock after %v: %w", elapsed, err)
			}
			log.Printf("Index locked by another process, waiting...")
			time.Sleep(lockRetryWait)
			continue
		}

		if err := os.WriteFile(lockPath, []byte(strconv.Itoa(ourPID)), 0644); err != nil {
			return fmt.Errorf("failed to create lock file: %w", err)
		}
		return nil
	}
}

// releaseLock releases the index lock if this process owns it
func releaseLock() error {
	lockPath := filepath.Join(dataDir, lockFile)

	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err == nil && pid != os.Getpid() {
		log.Printf("Warning: Lock file contains different PID (%d vs %d), not removing", pid, os.Getpid())
		return nil
	}

	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// SearchResult represents a search result with score
type SearchResult struct {
	Chunk indexing.RuleChunk `json:"chunk"`
	Score float64            `json:"score"`
}

// SearchRulesInput defines input for search_rules tool
type SearchRulesInput struct {
	Query      string `json:"query" jsonschema:"Search query for rule statements"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10)"`
}

// SearchRulesOutput defines output for search_rules tool
type SearchRulesOutput struct {
	Results   []SearchResult `json:"results"`
	Query     string         `json:"query"`
	TotalHits int            `json:"total_hits"`
	Corpus    string         `json:"corpus"`
}

// RefreshRuleIndexInput defines input for refresh_rule_index tool
type RefreshRuleIndexInput struct {
	Root  string `json:"root,omitempty" jsonschema:"Rule corpus directory to index (optional, defaults to the configured corpus)"`
	Force bool   `json:"force,omitempty" jsonschema:"Force re-indexing even if the index looks current (optional, defaults to false)"`
}

// RefreshRuleIndexOutput defines output for refresh_rule_index tool
type RefreshRuleIndexOutput struct {
	Updated       bool      `json:"updated"`
	LastUpdate    time.Time `json:"last_update"`
	ChunksIndexed int       `json:"chunks_indexed"`
	Message       string    `json:"message"`
}

// indexHolder manages concurrent access to the Bleve rule index. Searches
// read the current pointer lock-free; refreshMu only serializes rebuilds.
type indexHolder struct {
	current   atomic.Pointer[Index]
	refreshMu sync.Mutex

	// wg tracks in-flight searches so an old index is closed only after
	// they drain
	wg sync.WaitGroup
}

var (
	indexMgr *indexHolder
)

// InitializeRuleSearch opens the on-disk index from a previous build when
// its schema version matches, and otherwise rebuilds it from the configured
// corpus.
func InitializeRuleSearch() error {
	startTime := time.Now()

	if indexMgr == nil {
		indexMgr = &indexHolder{}
	}

	indexPath := filepath.Join(dataDir, indexDir)

	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire index lock: %w", err)
	}

	if _, err := os.Stat(indexPath); err == nil {
		currentVersion := getIndexVersion()
		if currentVersion != indexing.IndexSchemaVersion {
			log.Printf("Index schema version mismatch (have: v%d, want: v%d), invalidating old index...",
				currentVersion, indexing.IndexSchemaVersion)
			os.RemoveAll(indexPath)
			os.Remove(filepath.Join(dataDir, indexVersionFile))
		} else {
			index, err := bleve.Open(indexPath)
			if err == nil {
				wrapped := NewBleveIndexWrapper(index)
				indexMgr.current.Store(&wrapped)
				count, _ := wrapped.DocCount()
				log.Printf("✓ Rule search initialized (%d rules, local index v%d) in %v",
					count, indexing.IndexSchemaVersion, time.Since(startTime).Round(time.Millisecond))
				return nil
			}

			log.Printf("Warning: Local index corrupted, removing...")
			os.RemoveAll(indexPath)
			os.Remove(filepath.Join(dataDir, indexVersionFile))
		}
	}

	root := CorpusRoot()
	if root == "" {
		log.Printf("No rule corpus configured. Use refresh_rule_index with a root to build the index.")
		return nil
	}

	log.Printf("No local index found, building from corpus %s...", root)
	if err := buildIndexFromCorpus(root); err != nil {
		return fmt.Errorf("failed to build index from corpus: %w", err)
	}

	count := uint64(0)
	if ptr := indexMgr.current.Load(); ptr != nil {
		count, _ = (*ptr).DocCount()
	}
	log.Printf("✓ Rule search initialized (%d rules, fresh index) in %v",
		count, time.Since(startTime).Round(time.Millisecond))

	return nil
}

// getIndexVersion reads the current index schema version from disk
func getIndexVersion() int {
	data, err := os.ReadFile(filepath.Join(dataDir, indexVersionFile))
	if err != nil {
		return 0 // No version file = v0 (old format)
	}

	version := 0
	fmt.Sscanf(string(data), "%d", &version)
	return version
}

// writeIndexVersion writes the current index schema version to disk
func writeIndexVersion() error {
	versionPath := filepath.Join(dataDir, indexVersionFile)
	os.MkdirAll(filepath.Dir(versionPath), 0755)

	content := fmt.Sprintf("%d", indexing.IndexSchemaVersion)
	return os.WriteFile(versionPath, []byte(content), 0644)
}

// writeCorpusRoot records which corpus the on-disk index was built from
func writeCorpusRoot(root string) error {
	rootPath := filepath.Join(dataDir, corpusRootFile)
	os.MkdirAll(filepath.Dir(rootPath), 0755)
	return os.WriteFile(rootPath, []byte(root), 0644)
}

// averageTokens calculates the average token count across chunks
func averageTokens(chunks []indexing.RuleChunk) int {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, chunk := range chunks {
		total += chunk.TokenCount
	}
	return total / len(chunks)
}

// indexChunks creates the Bleve search index from rule chunks. The new index
// is built in a temp location and swapped in atomically so in-flight
// searches keep working against the old index.
func indexChunks(chunks []indexing.RuleChunk) error {
	indexPath := filepath.Join(dataDir, indexDir)
	tempIndexPath := filepath.Join(dataDir, indexDir+".tmp")

	// Leftover temp index from a previous crash
	os.RemoveAll(tempIndexPath)

	if err := os.MkdirAll(filepath.Dir(tempIndexPath), 0755); err != nil {
		return fmt.Errorf("failed to create temp index directory: %w", err)
	}

	log.Printf("Indexing %d chunks...", len(chunks))
	mapping := bleve.NewIndexMapping()
	newIndex, err := bleve.New(tempIndexPath, mapping)
	if err != nil {
		return fmt.Errorf("failed to create temp index: %w", err)
	}

	batch := newIndex.NewBatch()
	for i, chunk := range chunks {
		if err := batch.Index(chunk.ID, chunk); err != nil {
			newIndex.Close()
			os.RemoveAll(tempIndexPath)
			return fmt.Errorf("failed to add chunk %s to batch: %w", chunk.ID, err)
		}

		// Submit batch every 100 documents
		if i%100 == 0 && i > 0 {
			if err := newIndex.Batch(batch); err != nil {
				newIndex.Close()
				os.RemoveAll(tempIndexPath)
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = newIndex.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := newIndex.Batch(batch); err != nil {
			newIndex.Close()
			os.RemoveAll(tempIndexPath)
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}

	if err := newIndex.Close(); err != nil {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to close temp index: %w", err)
	}

	// Filesystem swap: remove the old directory, rename is atomic on POSIX
	if err := os.RemoveAll(indexPath); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.Rename(tempIndexPath, indexPath); err != nil {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to rename temp index: %w", err)
	}

	finalIndex, err := bleve.Open(indexPath)
	if err != nil {
		return fmt.Errorf("failed to open new index: %w", err)
	}

	wrapped := NewBleveIndexWrapper(finalIndex)
	oldIndexPtr := indexMgr.current.Swap(&wrapped)

	// Close the old index in the background once in-flight searches drain
	go func(oldPtr *Index) {
		if oldPtr == nil {
			return
		}
		indexMgr.wg.Wait()

		old := *oldPtr
		if err := old.Close(); err != nil {
			log.Printf("Warning: Error closing old index: %v", err)
		}
	}(oldIndexPtr)

	log.Printf("✓ Index swap completed, searches now using new index")

	if err := writeIndexVersion(); err != nil {
		log.Printf("Warning: Failed to write index version: %v", err)
	}

	return nil
}

// buildIndexFromCorpus runs the lint pipeline over the corpus and indexes
// the extracted rules. Caller must hold the inter-process lock.
func buildIndexFromCorpus(root string) error {
	result, err := pipeline.Run(root)
	if err != nil {
		return fmt.Errorf("corpus extraction failed: %w", err)
	}

	chunks := indexing.ChunksFromRecords(result.Records)
	log.Printf("Extracted %d rule chunks from %d documents (avg: %d tokens)",
		len(chunks), result.Report.Documents, averageTokens(chunks))

	if err := indexChunks(chunks); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if err := writeCorpusRoot(root); err != nil {
		log.Printf("Warning: Failed to record corpus root: %v", err)
	}

	return nil
}

// refreshRuleIndex rebuilds the search index from the rule corpus
func refreshRuleIndex(root string) error {
	startTime := time.Now()

	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()

	log.Printf("Starting rule index refresh for %s...", root)

	// Lock is released by CloseRuleSearch when the process exits
	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire lock for refresh: %w", err)
	}

	if err := buildIndexFromCorpus(root); err != nil {
		return err
	}

	log.Printf("✓ Rule index refresh completed in %v", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// SearchRules searches through indexed rule statements
func SearchRules(ctx context.Context, req *mcp.CallToolRequest, input SearchRulesInput) (*mcp.CallToolResult, SearchRulesOutput, error) {
	// wg.Add must precede the pointer load so a concurrent swap cannot
	// close the index under us
	if indexMgr == nil {
		indexMgr = &indexHolder{}
	}
	indexMgr.wg.Add(1)
	defer indexMgr.wg.Done()

	indexPtr := indexMgr.current.Load()
	if indexPtr == nil {
		log.Printf("Rule index not initialized, initializing now...")
		if err := InitializeRuleSearch(); err != nil {
			return nil, SearchRulesOutput{}, fmt.Errorf("failed to initialize rule index: %w", err)
		}
		indexPtr = indexMgr.current.Load()
		if indexPtr == nil {
			return nil, SearchRulesOutput{}, fmt.Errorf("no rule index available: configure a corpus root and run refresh_rule_index")
		}
	}
	index := *indexPtr

	maxResults := input.MaxResults
	if maxResults == 0 || maxResults > 20 {
		maxResults = maxSearchResults
	}

	query := bleve.NewMatchQuery(input.Query)
	search := bleve.NewSearchRequest(query)
	search.Size = maxResults
	search.Fields = []string{"*"}

	searchResults, err := index.Search(search)
	if err != nil {
		return nil, SearchRulesOutput{}, fmt.Errorf("search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		chunk := indexing.RuleChunk{
			ID: hit.ID,
		}

		if document, ok := hit.Fields["document"].(string); ok {
			chunk.Document = document
		}
		if heading, ok := hit.Fields["heading"].(string); ok {
			chunk.Heading = heading
		}
		if topic, ok := hit.Fields["topic"].(string); ok {
			chunk.Topic = topic
		}
		if strength, ok := hit.Fields["strength"].(string); ok {
			chunk.Strength = strength
		}
		if statement, ok := hit.Fields["statement"].(string); ok {
			chunk.Statement = statement
		}
		if line, ok := hit.Fields["line"].(float64); ok {
			chunk.Line = int(line)
		}
		if breadcrumb, ok := hit.Fields["breadcrumb"].(string); ok {
			chunk.Breadcrumb = breadcrumb
		}
		if keywords, ok := hit.Fields["keywords"].([]interface{}); ok {
			chunk.Keywords = make([]string, 0, len(keywords))
			for _, kw := range keywords {
				if kwStr, ok := kw.(string); ok {
					chunk.Keywords = append(chunk.Keywords, kwStr)
				}
			}
		}
		if tokenCount, ok := hit.Fields["token_count"].(float64); ok {
			chunk.TokenCount = int(tokenCount)
		}

		results = append(results, SearchResult{
			Chunk: chunk,
			Score: hit.Score,
		})
	}

	output := SearchRulesOutput{
		Results:   results,
		Query:     input.Query,
		TotalHits: int(searchResults.Total),
		Corpus:    CorpusRoot(),
	}

	return nil, output, nil
}

// RefreshRuleIndex rebuilds the rule search index from the corpus
func RefreshRuleIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshRuleIndexInput) (*mcp.CallToolResult, RefreshRuleIndexOutput, error) {
	output := RefreshRuleIndexOutput{
		Updated: false,
	}

	if indexMgr == nil {
		indexMgr = &indexHolder{}
	}

	root := input.Root
	if root == "" {
		root = CorpusRoot()
	}
	if root == "" {
		return nil, output, fmt.Errorf("no rule corpus configured: pass a root or start the server with one")
	}

	// Skip rebuild when the index already covers this corpus, unless forced
	if !input.Force && root == CorpusRoot() {
		if ptr := indexMgr.current.Load(); ptr != nil {
			count, _ := (*ptr).DocCount()
			output.ChunksIndexed = int(count)
			output.Message = fmt.Sprintf("Index already covers %s (%d chunks), use force to rebuild", root, count)
			return nil, output, nil
		}
	}

	if err := refreshRuleIndex(root); err != nil {
		return nil, output, fmt.Errorf("refresh failed: %w", err)
	}

	if ptr := indexMgr.current.Load(); ptr != nil {
		count, _ := (*ptr).DocCount()
		output.ChunksIndexed = int(count)
	}

	output.Updated = true
	output.LastUpdate = time.Now()
	output.Message = fmt.Sprintf("Rule index refreshed successfully, %d chunks indexed", output.ChunksIndexed)

	return nil, output, nil
}

// RegisterRuleSearchTools registers rule search tools
func RegisterRuleSearchTools(server *mcp.Server) error {
	if err := InitializeRuleSearch(); err != nil {
		log.Printf("Warning: Rule search initialization failed: %v", err)
		log.Printf("Rule search will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_rules",
			Description: "Search through extracted rule statements using full-text search. Returns top relevant rules with topic, strength and source location.",
		},
		SearchRules,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_rule_index",
			Description: "Rebuild the rule search index from the rule corpus directory",
		},
		RefreshRuleIndex,
	)

	return nil
}

// CloseRuleSearch closes the rule search index and releases the lock
func CloseRuleSearch() error {
	var closeErr error

	if indexMgr != nil {
		// Swap to nil first so no new search picks up the index
		indexPtr := indexMgr.current.Swap(nil)
		if indexPtr != nil {
			indexMgr.wg.Wait()

			index := *indexPtr
			closeErr = index.Close()
			if closeErr != nil {
				log.Printf("Error closing rule index: %v", closeErr)
			}
		}
	}

	// Release the inter-process lock even if close failed
	if err := releaseLock(); err != nil {
		log.Printf("Error releasing lock: %v", err)
		if closeErr == nil {
			closeErr = err
		}
	}

	return closeErr
}
