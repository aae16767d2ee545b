package main

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestRunReturnsExitCodeWhenListenFails(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "palestra.db")
	t.Setenv("PORT", strconv.Itoa(busy.Addr().(*net.TCPAddr).Port))
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
	t.Setenv("LOG_LEVEL", "error")
	for _, key := range []string{"GRPC_PORT", "AMQP_URL", "REDIS_URL", "AUTH_JWT_SECRET", "GOOGLE_SPREADSHEET_ID"} {
		t.Setenv(key, "")
	}

	if code := run(); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database was not created: %v", err)
	}
}
