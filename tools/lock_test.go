package tools

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestLockMechanism(t *testing.T) {
	// Use temp directory for testing
	oldDataDir := dataDir
	dataDir = t.TempDir()
	defer func() { dataDir = oldDataDir }()

	// Create search directory
	searchDir := filepath.Join(dataDir, "search")
	if err := os.MkdirAll(searchDir, 0755); err != nil {
		t.Fatalf("Failed to create search dir: %v", err)
	}

	t.Run("acquire and release lock", func(t *testing.T) {
		os.Remove(filepath.Join(dataDir, lockFile))

		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock: %v", err)
		}

		lockPath := filepath.Join(dataDir, lockFile)
		data, err := os.ReadFile(lockPath)
		if err != nil {
			t.Fatalf("Lock file not found: %v", err)
		}

		pid, err := strconv.Atoi(string(data))
		if err != nil {
			t.Fatalf("Invalid PID in lock file: %v", err)
		}
		if pid != os.Getpid() {
			t.Errorf("Lock has wrong PID: got %d, want %d", pid, os.Getpid())
		}

		if err := releaseLock(); err != nil {
			t.Fatalf("Failed to release lock: %v", err)
		}

		if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
			t.Error("Lock file should be removed after release")
		}
	})

	t.Run("detect stale lock", func(t *testing.T) {
		os.Remove(filepath.Join(dataDir, lockFile))

		// Fake stale lock with a PID that cannot exist
		stalePID := 99999
		lockPath := filepath.Join(dataDir, lockFile)
		if err := os.WriteFile(lockPath, []byte(strconv.Itoa(stalePID)), 0644); err != nil {
			t.Fatalf("Failed to create stale lock: %v", err)
		}

		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock after stale lock: %v", err)
		}

		data, _ := os.ReadFile(lockPath)
		pid, _ := strconv.Atoi(string(data))
		if pid != os.Getpid() {
			t.Errorf("Expected our PID after cleaning stale lock, got %d", pid)
		}

		releaseLock()
	})

	t.Run("corrupted lock file is cleaned", func(t *testing.T) {
		os.Remove(filepath.Join(dataDir, lockFile))

		lockPath := filepath.Join(dataDir, lockFile)
		if err := os.WriteFile(lockPath, []byte("not-a-pid"), 0644); err != nil {
			t.Fatalf("Failed to create corrupted lock: %v", err)
		}

		if err := cleanStaleLock(); err != nil {
			t.Fatalf("cleanStaleLock failed on corrupted file: %v", err)
		}
		if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
			t.Error("Corrupted lock file should be removed")
		}
	})

	t.Run("reacquire same lock", func(t *testing.T) {
		os.Remove(filepath.Join(dataDir, lockFile))

		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock: %v", err)
		}

		// Same PID reacquires immediately
		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to reacquire lock: %v", err)
		}

		releaseLock()
	})

	t.Run("is process running", func(t *testing.T) {
		if !isProcessRunning(os.Getpid()) {
			t.Error("Our own process should be detected as running")
		}

		if isProcessRunning(99999) {
			t.Error("Non-existent process should not be detected as running")
		}
	})
}
