package test

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/qhkm/docfetch/internal/cache"
	"github.com/qhkm/docfetch/internal/mcp"
)

// Integration tests for the full fetch-and-cache workflow, run against an
// in-memory documentation server instead of a spawned subprocess.

const (
	resolveListing = "Available Libraries:\n" +
		"- `/tiangolo/fastapi` - FastAPI web framework documentation\n" +
		"- `/encode/starlette` - Starlette ASGI toolkit\n"
	routingDocs = "FastAPI routing: declare path operations with @app.get and @app.post."
)

// loopbackServer implements mcp.Transport as an in-process documentation
// server: every request written to it is answered on its own read stream.
type loopbackServer struct {
	mu        sync.Mutex
	closed    bool
	lines     chan string
	closeOnce sync.Once
}

func newLoopbackServer() *loopbackServer {
	return &loopbackServer{lines: make(chan string, 64)}
}

func (s *loopbackServer) Start() error { return nil }

func (s *loopbackServer) WriteLine(data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("server closed")
	}
	s.mu.Unlock()

	var req mcp.JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	if resp := s.handle(&req); resp != nil {
		out, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		s.lines <- string(out)
	}
	return nil
}

func (s *loopbackServer) ReadLine() (string, error) {
	line, ok := <-s.lines
	if !ok {
		return "", io.EOF
	}
	return line + "\n", nil
}

func (s *loopbackServer) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *loopbackServer) Terminate() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.lines) })
	return nil
}

func (s *loopbackServer) handle(req *mcp.JSONRPCRequest) *mcp.JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return s.result(req.ID, mcp.InitializeResult{
			ProtocolVersion: mcp.ProtocolVersion,
			ServerInfo:      mcp.ServerInfo{Name: "loopback-context7", Version: "0.0.1"},
			Capabilities:    mcp.ServerCapabilities{Tools: &mcp.ToolsCapability{}},
		})
	case "notifications/initialized":
		// No response needed for notifications
		return nil
	case "tools/list":
		return s.result(req.ID, mcp.ListToolsResult{Tools: []mcp.Tool{
			{Name: mcp.ResolveToolName, Description: "Resolve a library name to an id"},
			{Name: mcp.DocsToolName, Description: "Fetch documentation for a library id"},
		}})
	case "tools/call":
		params, _ := req.Params.(map[string]interface{})
		switch params["name"] {
		case mcp.ResolveToolName:
			return s.textResult(req.ID, resolveListing)
		case mcp.DocsToolName:
			return s.textResult(req.ID, routingDocs)
		}
		return s.textResult(req.ID, "Unknown tool")
	default:
		return &mcp.JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &mcp.JSONRPCError{Code: -32601, Message: "Method not found"},
		}
	}
}

func (s *loopbackServer) result(id *int64, v interface{}) *mcp.JSONRPCResponse {
	data, _ := json.Marshal(v)
	return &mcp.JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: data}
}

func (s *loopbackServer) textResult(id *int64, text string) *mcp.JSONRPCResponse {
	return s.result(id, mcp.CallToolResult{
		Content: []mcp.ContentBlock{{Type: "text", Text: text}},
	})
}

func setupCache(t *testing.T) (*cache.Manager, string) {
	tmpDir, err := os.MkdirTemp("", "docfetch-integration-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := cache.NewManager(tmpDir, 0)
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	return store, tmpDir
}

func TestFullWorkflow_FetchAndCacheHit(t *testing.T) {
	store, cacheDir := setupCache(t)

	client := mcp.NewClient(newLoopbackServer(), mcp.Options{})
	if !client.Connect() {
		t.Fatal("Failed to connect to loopback server")
	}
	defer client.Close()

	// Step 1: discovery
	tools := client.DiscoverTools()
	if len(tools) != 2 {
		t.Fatalf("Expected 2 tools, got %d", len(tools))
	}

	// Step 2: resolve the library name
	id, err := client.ResolveLibraryID("fastapi")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != "/tiangolo/fastapi" {
		t.Fatalf("Expected /tiangolo/fastapi, got %q", id)
	}

	// Step 3: fetch docs with a topic filter
	docs, err := client.QueryDocs(id, "routing", 0)
	if err != nil {
		t.Fatalf("QueryDocs failed: %v", err)
	}
	if docs == nil {
		t.Fatal("Expected docs, got nil")
	}
	if docs.Content.Text != routingDocs {
		t.Errorf("Docs text mismatch: %q", docs.Content.Text)
	}
	if docs.Content.Tokens != 5000 {
		t.Errorf("Expected default token budget 5000, got %d", docs.Content.Tokens)
	}
	if docs.Citations != nil {
		t.Errorf("Expected nil citations, got %v", docs.Citations)
	}

	// Step 4: the orchestrated fetch writes the cache
	result, err := client.FetchAndCache("fastapi", "0.110", "routing", 0, store)
	if err != nil {
		t.Fatalf("FetchAndCache failed: %v", err)
	}
	if result.Source != mcp.SourceAPI || !result.Success {
		t.Fatalf("Expected successful api fetch, got %+v", result)
	}

	// Step 5: the caller-side hit check finds it by recomputed fingerprint
	fingerprint := cache.Fingerprint("fastapi", "0.110", "routing")
	if fingerprint != result.Fingerprint {
		t.Errorf("Recomputed fingerprint %s differs from result %s", fingerprint, result.Fingerprint)
	}

	entry := store.Get(fingerprint)
	if entry == nil {
		t.Fatal("Cache should hold the fetched entry")
	}
	if entry.Content.Text != routingDocs {
		t.Errorf("Cached text mismatch: %q", entry.Content.Text)
	}
	if entry.LibraryID != "/tiangolo/fastapi" {
		t.Errorf("Cached library id mismatch: %q", entry.LibraryID)
	}

	// Step 6: a fresh manager over the same directory still hits
	reopened, err := cache.NewManager(cacheDir, 0)
	if err != nil {
		t.Fatalf("Failed to reopen cache: %v", err)
	}
	if reopened.Get(fingerprint) == nil {
		t.Error("Entry should survive a cache reload")
	}

	t.Log("Full workflow completed successfully")
}

func TestWorkflow_BudgetExhaustion(t *testing.T) {
	store, _ := setupCache(t)

	// Budget of 4 covers two full fetches (resolve + query each)
	client := mcp.NewClient(newLoopbackServer(), mcp.Options{MaxQueries: 4})
	if !client.Connect() {
		t.Fatal("Failed to connect to loopback server")
	}
	defer client.Close()

	for i := 0; i < 2; i++ {
		result, err := client.FetchAndCache("fastapi", "0.110", fmt.Sprintf("topic-%d", i), 0, store)
		if err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
		if !result.Success {
			t.Fatalf("Fetch %d should succeed, got source %s", i, result.Source)
		}
	}

	if remaining := client.QueriesRemaining(); remaining != 0 {
		t.Errorf("Expected exhausted budget, %d queries remaining", remaining)
	}

	if _, err := client.FetchAndCache("fastapi", "0.110", "topic-2", 0, store); err == nil {
		t.Error("Fetch past the budget should fail with a rate-limit error")
	}

	// The two successful fetches are cached under distinct fingerprints
	if store.Len() != 2 {
		t.Errorf("Expected 2 cached entries, got %d", store.Len())
	}
}

func TestWorkflow_ScopedClient(t *testing.T) {
	store, _ := setupCache(t)

	var fingerprint string
	err := mcp.WithClient(mcp.NewClient(newLoopbackServer(), mcp.Options{}), func(c *mcp.Client) error {
		result, err := c.FetchAndCache("fastapi", "", "routing", 0, store)
		if err != nil {
			return err
		}
		fingerprint = result.Fingerprint
		return nil
	})
	if err != nil {
		t.Fatalf("Scoped fetch failed: %v", err)
	}

	if store.Get(fingerprint) == nil {
		t.Error("Entry should be cached after the scope exits")
	}
}
