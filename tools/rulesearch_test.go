package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestIndexHolderConcurrentReads(t *testing.T) {
	// Multiple goroutines reading from indexHolder (pure unit test, no
	// filesystem)
	mockIdx := newMockIndex(1)
	idx := Index(mockIdx)

	holder := &indexHolder{}
	holder.current.Store(&idx)

	const numReaders = 50
	errChan := make(chan error, numReaders)
	doneChan := make(chan bool, numReaders)

	for i := 0; i < numReaders; i++ {
		go func(id int) {
			defer func() { doneChan <- true }()

			holder.wg.Add(1)
			defer holder.wg.Done()

			indexPtr := holder.current.Load()
			if indexPtr == nil {
				errChan <- fmt.Errorf("goroutine %d: got nil index", id)
				return
			}

			index := *indexPtr
			count, err := index.DocCount()
			if err != nil {
				errChan <- fmt.Errorf("goroutine %d: DocCount failed: %v", id, err)
				return
			}

			if count != 40 { // Mock default
				errChan <- fmt.Errorf("goroutine %d: expected 40, got %d", id, count)
			}
		}(i)
	}

	for i := 0; i < numReaders; i++ {
		<-doneChan
	}
	close(errChan)

	for err := range errChan {
		t.Error(err)
	}

	// WaitGroup must be drained
	holder.wg.Wait()
}

func TestIndexHolderAtomicSwap(t *testing.T) {
	mock1 := newMockIndex(1)
	mock2 := newMockIndex(2)
	idx1 := Index(mock1)
	idx2 := Index(mock2)

	holder := &indexHolder{}
	holder.current.Store(&idx1)

	ptr1 := holder.current.Load()
	if ptr1 == nil {
		t.Fatal("First load returned nil")
	}
	if *ptr1 != idx1 {
		t.Error("Expected idx1")
	}

	oldPtr := holder.current.Swap(&idx2)
	if oldPtr == nil {
		t.Fatal("Swap returned nil for old index")
	}
	if *oldPtr != idx1 {
		t.Error("Old pointer should be idx1")
	}

	ptr2 := holder.current.Load()
	if ptr2 == nil {
		t.Fatal("Second load returned nil")
	}
	if *ptr2 != idx2 {
		t.Error("Expected idx2")
	}
	if ptr1 == ptr2 {
		t.Error("Old and new pointers should be different")
	}
}

func TestIndexHolderConcurrentSwapAndRead(t *testing.T) {
	// Concurrent swaps and reads; "index closed" is an allowed race during
	// a swap, anything else is a bug
	mockIdx := newMockIndex(0)
	idx := Index(mockIdx)

	holder := &indexHolder{}
	holder.current.Store(&idx)

	errChan := make(chan error, 100)
	doneChan := make(chan bool, 100)

	const numReaders = 20
	const iterations = 5

	for i := 0; i < numReaders; i++ {
		go func(id int) {
			defer func() { doneChan <- true }()

			for j := 0; j < iterations; j++ {
				holder.wg.Add(1)
				indexPtr := holder.current.Load()

				if indexPtr == nil {
					holder.wg.Done()
					errChan <- fmt.Errorf("reader %d iteration %d: got nil", id, j)
					return
				}

				index := *indexPtr
				_, err := index.DocCount()
				holder.wg.Done()

				if err != nil && err.Error() != "index closed" {
					errChan <- fmt.Errorf("reader %d iteration %d: %v", id, j, err)
					return
				}
			}
		}(i)
	}

	go func() {
		defer func() { doneChan <- true }()

		for i := 0; i < 3; i++ {
			newMock := newMockIndex(i + 1)
			newIdx := Index(newMock)
			_ = holder.current.Swap(&newIdx)
		}
	}()

	for i := 0; i < numReaders+1; i++ {
		<-doneChan
	}
	close(errChan)

	for err := range errChan {
		t.Error(err)
	}

	holder.wg.Wait()
}

func TestGetAndWriteIndexVersion(t *testing.T) {
	oldDataDir := dataDir
	dataDir = t.TempDir()
	defer func() { dataDir = oldDataDir }()

	// No version file means v0
	if v := getIndexVersion(); v != 0 {
		t.Errorf("Expected version 0 without file, got %d", v)
	}

	if err := writeIndexVersion(); err != nil {
		t.Fatalf("writeIndexVersion failed: %v", err)
	}

	if v := getIndexVersion(); v == 0 {
		t.Error("Expected non-zero version after write")
	}
}

func TestCorpusRootPersistence(t *testing.T) {
	oldDataDir := dataDir
	oldCorpusRoot := corpusRoot
	dataDir = t.TempDir()
	corpusRoot = ""
	defer func() {
		dataDir = oldDataDir
		corpusRoot = oldCorpusRoot
	}()

	// Nothing configured, nothing recorded
	if root := CorpusRoot(); root != "" {
		t.Errorf("Expected empty corpus root, got %q", root)
	}

	// Recorded root is picked up when nothing is configured
	if err := writeCorpusRoot("/somewhere/rules"); err != nil {
		t.Fatalf("writeCorpusRoot failed: %v", err)
	}
	if root := CorpusRoot(); root != "/somewhere/rules" {
		t.Errorf("Expected recorded root, got %q", root)
	}

	// Explicit configuration wins
	SetCorpusRoot(filepath.Join(os.TempDir(), "explicit"))
	if root := CorpusRoot(); filepath.Base(root) != "explicit" {
		t.Errorf("Expected configured root to win, got %q", root)
	}
}
