//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// The checkout orchestrator consumes the users and products routes of the
// commerce API through internal/clients/http.
const (
	ProviderName = "commerce-api"
	ConsumerName = "checkout"

	StateUserExists     = "user 1 exists"
	StateNoUsers        = "no users"
	StateProductInStock = "product 1 has 5 units in stock"
	StateProductSoldOut = "product 1 is sold out"
)

const (
	ExistingUserID int64 = 1
	MissingUserID  int64 = 404
	ProductID      int64 = 1
	ProductStock   int64 = 5

	UserName     = "Pact User"
	UserEmail    = "pact.user@example.com"
	ProductName  = "Caneca Pact"
	ProductPrice = 19.9
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the checkout consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
