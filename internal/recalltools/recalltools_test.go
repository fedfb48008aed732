package recalltools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmfarley/recollect/internal/store"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

// newTestStore creates a store.Store in a temp directory for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "recollect.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func mustNotError(t *testing.T, result *mcp.CallToolResult, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatalf("handler returned tool error: %s", resultText(result))
	}
}

func seedRecord(t *testing.T, st *store.Store, id, kind, body string) {
	t.Helper()
	err := st.Write(store.Record{
		ID:        id,
		Kind:      kind,
		Body:      body,
		CreatedAt: 1000,
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("seed write: %v", err)
	}
}

// ─── SearchTool Tests ────────────────────────────────────────────────────────

func TestSearchTool_Definition(t *testing.T) {
	tool := NewSearchTool(newTestStore(t))
	def := tool.Definition()

	if def.Name != "recall_search" {
		t.Errorf("tool name = %q, want %q", def.Name, "recall_search")
	}
	props := def.InputSchema.Properties
	if _, ok := props["query"]; !ok {
		t.Error("missing 'query' parameter")
	}
	if _, ok := props["limit"]; !ok {
		t.Error("missing 'limit' parameter")
	}
}

func TestSearchTool_FindsMatch(t *testing.T) {
	st := newTestStore(t)
	seedRecord(t, st, "r1", store.KindDiscovery, "found the retry bug in the connection pool")
	seedRecord(t, st, "r2", store.KindSolution, "bumped the pool size")

	tool := NewSearchTool(st)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "retry",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "retry bug") {
		t.Errorf("expected matching record in output, got: %s", text)
	}
	if strings.Contains(text, "pool size") {
		t.Errorf("non-matching record leaked into output: %s", text)
	}
}

func TestSearchTool_NoMatches(t *testing.T) {
	st := newTestStore(t)
	seedRecord(t, st, "r1", store.KindDiscovery, "something else entirely")

	tool := NewSearchTool(st)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "zzzzz",
	}))
	mustNotError(t, result, err)

	if !strings.Contains(resultText(result), "No records found") {
		t.Errorf("expected no-results message, got: %s", resultText(result))
	}
}

func TestSearchTool_EmptyQueryListsRecent(t *testing.T) {
	st := newTestStore(t)
	seedRecord(t, st, "r1", store.KindDecision, "chose sqlite for persistence")

	tool := NewSearchTool(st)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, err)

	if !strings.Contains(resultText(result), "sqlite") {
		t.Errorf("empty query should return recent records, got: %s", resultText(result))
	}
}

// ─── RecentTool Tests ────────────────────────────────────────────────────────

func TestRecentTool_Empty(t *testing.T) {
	tool := NewRecentTool(newTestStore(t))
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, err)

	if !strings.Contains(resultText(result), "No records captured yet") {
		t.Errorf("expected empty-store message, got: %s", resultText(result))
	}
}

func TestRecentTool_HonorsLimit(t *testing.T) {
	st := newTestStore(t)
	seedRecord(t, st, "r1", store.KindDiscovery, "first")
	seedRecord(t, st, "r2", store.KindDiscovery, "second")
	seedRecord(t, st, "r3", store.KindDiscovery, "third")

	tool := NewRecentTool(st)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"limit": float64(2),
	}))
	mustNotError(t, result, err)

	if !strings.Contains(resultText(result), "Found 2 records") {
		t.Errorf("expected 2 records, got: %s", resultText(result))
	}
}

// ─── StatsTool Tests ─────────────────────────────────────────────────────────

func TestStatsTool_Empty(t *testing.T) {
	tool := NewStatsTool(newTestStore(t))
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, err)

	if !strings.Contains(resultText(result), "**Records**: 0") {
		t.Errorf("expected zero record count, got: %s", resultText(result))
	}
}

func TestStatsTool_CountsByKind(t *testing.T) {
	st := newTestStore(t)
	seedRecord(t, st, "r1", store.KindDiscovery, "a")
	seedRecord(t, st, "r2", store.KindDiscovery, "b")
	seedRecord(t, st, "r3", store.KindProblem, "c")

	tool := NewStatsTool(st)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "**Records**: 3") {
		t.Errorf("expected 3 records, got: %s", text)
	}
	if !strings.Contains(text, "discovery: 2") || !strings.Contains(text, "problem: 1") {
		t.Errorf("expected per-kind counts, got: %s", text)
	}
}

// ─── Helper Tests ────────────────────────────────────────────────────────────

func TestClampLimit(t *testing.T) {
	tests := []struct {
		n, max, want int
	}{
		{0, 50, 1},
		{-5, 50, 1},
		{10, 50, 10},
		{99, 50, 50},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.n, tt.max); got != tt.want {
			t.Errorf("clampLimit(%d, %d) = %d, want %d", tt.n, tt.max, got, tt.want)
		}
	}
}
