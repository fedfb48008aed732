package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dmfarley/recollect/internal/store"
)

// newTestStore opens a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "recollect.db"), nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id, kind, body string) store.Record {
	return store.Record{
		ID:        id,
		Kind:      kind,
		Body:      body,
		CreatedAt: time.Now().UnixMilli(),
		SessionID: "sess-1",
	}
}

// ─── Open ───────────────────────────────────────────────────────────────────

func TestOpen_ReopenKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recollect.db")

	s1, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.Write(testRecord("r1", store.KindDiscovery, "found the config loader")); err != nil {
		t.Fatalf("write: %v", err)
	}
	s1.Close()

	s2, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	rec, err := s2.Read("r1")
	if err != nil {
		t.Fatalf("read after reopen: %v", err)
	}
	if rec == nil {
		t.Fatal("record lost across reopen")
	}
	if rec.Body != "found the config loader" {
		t.Errorf("body = %q, want original", rec.Body)
	}
}

// ─── Write / Read ───────────────────────────────────────────────────────────

func TestWrite_Idempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.Write(testRecord("dup", store.KindDecision, "first body")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := s.Write(testRecord("dup", store.KindDecision, "second body")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	rec, err := s.Read("dup")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Body != "second body" {
		t.Errorf("body = %q, want latest write", rec.Body)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Count != 1 {
		t.Errorf("count = %d, want 1 after overwrite", stats.Count)
	}
}

func TestWrite_RejectsUnknownKind(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(testRecord("r1", "musings", "free association")); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestWrite_PreservesAttributes(t *testing.T) {
	s := newTestStore(t)
	rec := testRecord("r1", store.KindRefactor, "edited app.ts")
	rec.Attributes = map[string]any{
		"tool":  "edit",
		"files": []any{"src/app.ts"},
	}
	if err := s.Write(rec); err != nil {
		t.Fatal(err)
	}

	got, err := s.Read("r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Attributes["tool"] != "edit" {
		t.Errorf("tool attribute = %v", got.Attributes["tool"])
	}
	files, ok := got.Attributes["files"].([]any)
	if !ok || len(files) != 1 || files[0] != "src/app.ts" {
		t.Errorf("files attribute = %v, want [src/app.ts]", got.Attributes["files"])
	}
}

func TestRead_MissingReturnsNil(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Read("nope")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if rec != nil {
		t.Errorf("rec = %+v, want nil", rec)
	}
}

// ─── Search ─────────────────────────────────────────────────────────────────

func TestSearch_FindsBodyMatch(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(testRecord("r1", store.KindProblem, "null pointer in the needle parser")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(testRecord("r2", store.KindSolution, "unrelated haystack work")); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search("needle", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ID != "r1" {
		t.Errorf("result = %s, want r1", results[0].ID)
	}
}

func TestSearch_HonorsLimit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		rec := testRecord(string(rune('a'+i)), store.KindDiscovery, "repeated marker body")
		rec.CreatedAt = int64(1000 + i)
		if err := s.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	results, err := s.Search("marker", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

func TestSearch_EmptyQueryReturnsRecent(t *testing.T) {
	s := newTestStore(t)
	rec := testRecord("r1", store.KindPattern, "singleton config loader")
	if err := s.Write(rec); err != nil {
		t.Fatal(err)
	}
	results, err := s.Search("   ", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestSearch_EscapesWildcards(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(testRecord("r1", store.KindProblem, "literal 100% coverage goal")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(testRecord("r2", store.KindProblem, "nothing to see")); err != nil {
		t.Fatal(err)
	}

	// A bare "%" must not match everything on the scan path.
	results, err := s.Search("100%", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.ID == "r2" {
			t.Errorf("wildcard leak: %%-query matched an unrelated record")
		}
	}
}

func TestSearch_FallbackEquivalence(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(testRecord("r1", store.KindProblem, "there is a needle in this body")); err != nil {
		t.Fatal(err)
	}

	s.ForceScanPath()

	results, err := s.Search("needle", 10)
	if err != nil {
		t.Fatalf("scan-path Search error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "r1" {
		t.Fatalf("scan path results = %v, want the needle record", results)
	}
}

// ─── Stats ──────────────────────────────────────────────────────────────────

func TestStats_EmptyStoreZeroValues(t *testing.T) {
	s := newTestStore(t)
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats error on empty store: %v", err)
	}
	if stats.Count != 0 {
		t.Errorf("count = %d, want 0", stats.Count)
	}
	if stats.OldestTimestamp != nil || stats.NewestTimestamp != nil {
		t.Error("timestamps should be nil on empty store")
	}
	if len(stats.CountsByKind) != 0 {
		t.Errorf("countsByKind = %v, want empty", stats.CountsByKind)
	}
}

func TestStats_Aggregation(t *testing.T) {
	s := newTestStore(t)
	for i, kind := range []string{store.KindDiscovery, store.KindDiscovery, store.KindDecision} {
		rec := testRecord(string(rune('a'+i)), kind, "body")
		rec.CreatedAt = int64(1000 + i)
		if err := s.Write(rec); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Count != 3 {
		t.Errorf("count = %d, want 3", stats.Count)
	}
	if stats.CountsByKind[store.KindDiscovery] != 2 || stats.CountsByKind[store.KindDecision] != 1 {
		t.Errorf("countsByKind = %v", stats.CountsByKind)
	}
	if stats.OldestTimestamp == nil || *stats.OldestTimestamp != 1000 {
		t.Errorf("oldest = %v, want 1000", stats.OldestTimestamp)
	}
	if stats.NewestTimestamp == nil || *stats.NewestTimestamp != 1002 {
		t.Errorf("newest = %v, want 1002", stats.NewestTimestamp)
	}
	if stats.ApproxSizeBytes <= 0 {
		t.Errorf("approx size = %d, want > 0", stats.ApproxSizeBytes)
	}
}

// ─── Recent ─────────────────────────────────────────────────────────────────

func TestRecent_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		rec := testRecord(string(rune('a'+i)), store.KindDiscovery, "body")
		rec.CreatedAt = int64(1000 + i)
		if err := s.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	results, err := s.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "c" || results[1].ID != "b" {
		t.Errorf("order = %s, %s; want c, b", results[0].ID, results[1].ID)
	}
}
