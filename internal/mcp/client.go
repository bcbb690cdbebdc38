package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qhkm/docfetch/internal/cache"
)

const (
	ProtocolVersion = "2024-11-05"
	ClientName      = "docfetch"
	ClientVersion   = "0.1.0"

	ResolveToolName = "resolve-library-id"
	DocsToolName    = "get-library-docs"

	DefaultTimeout    = 30 * time.Second
	DefaultMaxQueries = 10
	DefaultTokens     = 5000
)

// FetchResult source tags. The orchestrating caller branches on Source
// instead of handling errors.
const (
	SourceAPI           = "api"
	SourceResolveFailed = "resolve_failed"
	SourceQueryFailed   = "query_failed"
)

// Options configures a client. Zero values fall back to the defaults above.
type Options struct {
	Timeout    time.Duration
	MaxQueries int
}

// DocStore is the cache write contract the client produces into. It never
// reads from the store; cache-hit short-circuiting is the caller's job.
type DocStore interface {
	Set(fingerprint, libraryID, libraryName, libraryVersion, queryIntent string, content cache.Content, citations []string) error
}

// DocResult is a successful documentation query.
type DocResult struct {
	Content   cache.Content `json:"content"`
	Citations []string      `json:"citations,omitempty"`
}

// FetchResult is what FetchAndCache always returns, success or not.
type FetchResult struct {
	Source      string `json:"source"`
	Success     bool   `json:"success"`
	LibraryID   string `json:"library_id,omitempty"`
	Fingerprint string `json:"fingerprint"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

// Client speaks JSON-RPC 2.0 to a single documentation server subprocess.
// Lifecycle: Connect once, any number of queries until the session budget
// runs out, Close once. A closed client cannot be reconnected; construct a
// new one. Public methods are not safe for concurrent use from multiple
// goroutines without external locking.
type Client struct {
	transport  Transport
	timeout    time.Duration
	maxQueries int
	sessionID  string

	mu         sync.Mutex
	nextID     int64
	pending    map[int64]chan *JSONRPCResponse
	queryCount int
	tools      map[string]Tool
	connected  bool
	closed     bool
}

// NewClient creates a client over the given transport.
func NewClient(transport Transport, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxQueries <= 0 {
		opts.MaxQueries = DefaultMaxQueries
	}

	return &Client{
		transport:  transport,
		timeout:    opts.Timeout,
		maxQueries: opts.MaxQueries,
		sessionID:  uuid.New().String()[:8],
		pending:    make(map[int64]chan *JSONRPCResponse),
	}
}

// SessionID identifies this client instance in warnings and status output.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Connect spawns the server, starts the reader and performs the initialize
// handshake. It reports failure instead of returning an error: connection
// problems are routine and must not crash an orchestrating pipeline.
func (c *Client) Connect() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.warnf("connect called on closed client")
		return false
	}
	if c.connected {
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	if err := c.transport.Start(); err != nil {
		c.warnf("connect failed: %v", err)
		return false
	}

	go c.readLoop()

	resp, err := c.sendRequest("initialize", InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo:      ClientInfo{Name: ClientName, Version: ClientVersion},
		Capabilities:    ClientCapabilities{},
	})
	if err != nil {
		c.warnf("initialize failed: %v", err)
		c.Close()
		return false
	}
	if resp.Error != nil {
		c.warnf("initialize rejected: %s", resp.Error.Message)
		c.Close()
		return false
	}

	if err := c.sendNotification("notifications/initialized", nil); err != nil {
		c.warnf("initialized notification failed: %v", err)
		c.Close()
		return false
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return true
}

// Connected reports whether the handshake succeeded and the subprocess is
// still running.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && c.transport.Alive()
}

// DiscoverTools fetches the server's tool list and caches a name to schema
// mapping for the life of the connection. Returns an empty map if the list
// is unavailable.
func (c *Client) DiscoverTools() map[string]Tool {
	resp, err := c.sendRequest("tools/list", map[string]interface{}{})
	if err != nil {
		c.warnf("tools/list failed: %v", err)
		return map[string]Tool{}
	}
	if resp.Error != nil {
		c.warnf("tools/list rejected: %s", resp.Error.Message)
		return map[string]Tool{}
	}

	var result ListToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		c.warnf("tools/list returned malformed result: %v", err)
		return map[string]Tool{}
	}

	tools := make(map[string]Tool, len(result.Tools))
	for _, tool := range result.Tools {
		tools[tool.Name] = tool
	}

	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()
	return tools
}

// Tools returns the mapping cached by DiscoverTools.
func (c *Client) Tools() map[string]Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tools
}

// ResolveLibraryID asks the server to map a human library name to its
// canonical documentation path. Transport and protocol failures degrade to
// "" with a warning; only a rate-limit error is returned.
func (c *Client) ResolveLibraryID(name string) (string, error) {
	if err := c.checkBudget(); err != nil {
		return "", err
	}

	result, err := c.callTool(ResolveToolName, map[string]interface{}{
		"libraryName": name,
	})
	if err != nil {
		c.warnf("resolve %q failed: %v", name, err)
		return "", nil
	}
	if result.IsError {
		c.warnf("resolve %q failed: %s", name, joinTextBlocks(result))
		return "", nil
	}

	id := extractLibraryID(joinTextBlocks(result), name)
	if id == "" {
		c.warnf("no library id found for %q", name)
	}
	return id, nil
}

// QueryDocs fetches documentation for a resolved library id, optionally
// filtered by topic. Returns nil if the server produced no text. Transport
// and protocol failures degrade to nil with a warning; only a rate-limit
// error is returned.
func (c *Client) QueryDocs(libraryID, topic string, tokens int) (*DocResult, error) {
	if err := c.checkBudget(); err != nil {
		return nil, err
	}
	if tokens <= 0 {
		tokens = DefaultTokens
	}

	args := map[string]interface{}{
		"context7CompatibleLibraryID": libraryID,
		"tokens":                      tokens,
	}
	if topic != "" {
		args["topic"] = topic
	}

	result, err := c.callTool(DocsToolName, args)
	if err != nil {
		c.warnf("query docs for %s failed: %v", libraryID, err)
		return nil, nil
	}
	if result.IsError {
		c.warnf("query docs for %s failed: %s", libraryID, joinTextBlocks(result))
		return nil, nil
	}

	text := joinTextBlocks(result)
	if text == "" {
		c.warnf("query docs for %s returned no text", libraryID)
		return nil, nil
	}

	return &DocResult{
		Content:   cache.Content{Text: text, Tokens: tokens},
		Citations: result.Citations,
	}, nil
}

// FetchAndCache resolves a library, queries its docs with the given token
// budget (<= 0 means DefaultTokens) and writes the result into the store
// under the fingerprint of (library, version, intent). It never reads the
// cache. The returned error is only ever a rate-limit error; every other
// failure is reported through the result's Source.
func (c *Client) FetchAndCache(library, version, intent string, tokens int, store DocStore) (*FetchResult, error) {
	start := time.Now()
	res := &FetchResult{
		Source:      SourceResolveFailed,
		Fingerprint: cache.Fingerprint(library, version, intent),
	}

	libraryID, err := c.ResolveLibraryID(library)
	if err != nil {
		return nil, err
	}
	if libraryID == "" {
		res.ElapsedMS = time.Since(start).Milliseconds()
		return res, nil
	}
	res.LibraryID = libraryID

	docs, err := c.QueryDocs(libraryID, intent, tokens)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		res.Source = SourceQueryFailed
		res.ElapsedMS = time.Since(start).Milliseconds()
		return res, nil
	}

	if err := store.Set(res.Fingerprint, libraryID, library, version, intent, docs.Content, docs.Citations); err != nil {
		c.warnf("cache write for %s failed: %v", res.Fingerprint, err)
	}

	res.Source = SourceAPI
	res.Success = true
	res.ElapsedMS = time.Since(start).Milliseconds()
	return res, nil
}

// QueriesRemaining reports how much of the session budget is left. It is
// informational; the budget check itself happens inside the rate-limited
// methods.
func (c *Client) QueriesRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.maxQueries - c.queryCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Close tears the connection down: fails any in-flight requests, then
// terminates the subprocess, which also stops the reader. Idempotent, and
// safe on a never-connected client. Teardown failures are swallowed.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.connected = false
	pending := c.pending
	c.pending = make(map[int64]chan *JSONRPCResponse)
	c.mu.Unlock()

	// Waiters see a closed channel and fail immediately instead of
	// running out their timeout
	for _, ch := range pending {
		close(ch)
	}

	c.transport.Terminate()
}

// WithClient runs fn against a connected client and guarantees Close no
// matter how fn exits.
func WithClient(c *Client, fn func(*Client) error) error {
	if !c.Connect() {
		return fmt.Errorf("%w: could not connect to documentation server", ErrClient)
	}
	defer c.Close()
	return fn(c)
}

// checkBudget enforces the session-wide query limit. The counter only moves
// forward; a fresh client is the only reset.
func (c *Client) checkBudget() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queryCount >= c.maxQueries {
		return fmt.Errorf("%w: %d of %d session queries used", ErrRateLimit, c.queryCount, c.maxQueries)
	}
	c.queryCount++
	return nil
}

// callTool issues a tools/call request and decodes its result.
func (c *Client) callTool(name string, args map[string]interface{}) (*CallToolResult, error) {
	resp, err := c.sendRequest("tools/call", CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrProtocol, name, resp.Error.Message)
	}

	var result CallToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("%w: %s returned malformed result: %v", ErrProtocol, name, err)
	}
	return &result, nil
}

// sendRequest writes one correlated request and blocks until the reader
// delivers the matching response or the deadline passes. A late response
// for an abandoned id is dropped by the reader.
func (c *Client) sendRequest(method string, params interface{}) (*JSONRPCResponse, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: client is closed", ErrProtocol)
	}
	c.nextID++
	id := c.nextID
	ch := make(chan *JSONRPCResponse, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	data, err := json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		c.abandon(id)
		return nil, fmt.Errorf("%w: marshal %s: %v", ErrProtocol, method, err)
	}

	if err := c.transport.WriteLine(data); err != nil {
		c.abandon(id)
		return nil, fmt.Errorf("%w: send %s: %v", ErrProtocol, method, err)
	}

	select {
	case resp := <-ch:
		if resp == nil {
			return nil, fmt.Errorf("%w: client closed during %s", ErrProtocol, method)
		}
		return resp, nil
	case <-time.After(c.timeout):
		c.abandon(id)
		return nil, fmt.Errorf("%w: no response to %s after %s", ErrTimeout, method, c.timeout)
	}
}

// sendNotification writes a fire-and-forget message with no id.
func (c *Client) sendNotification(method string, params interface{}) error {
	data, err := json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrProtocol, method, err)
	}
	if err := c.transport.WriteLine(data); err != nil {
		return fmt.Errorf("%w: send %s: %v", ErrProtocol, method, err)
	}
	return nil
}

// abandon deregisters a pending request after a send failure or timeout.
func (c *Client) abandon(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop is the dedicated reader for the subprocess's output stream. It
// skips startup banners and other non-JSON noise, drops id-less
// notifications and routes every id-bearing response to its waiter. Exits
// when the transport's read side closes.
func (c *Client) readLoop() {
	for {
		line, err := c.transport.ReadLine()
		if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}

		var resp JSONRPCResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			continue
		}
		if resp.ID == nil {
			// Notification, no waiter
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[*resp.ID]
		if ok {
			delete(c.pending, *resp.ID)
		}
		c.mu.Unlock()

		if ok {
			ch <- &resp
		}
	}
}

func (c *Client) warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[docfetch %s] Warning: %s\n", c.sessionID, fmt.Sprintf(format, args...))
}

// joinTextBlocks concatenates the text-typed content blocks of a tool result.
func joinTextBlocks(result *CallToolResult) string {
	var parts []string
	for _, block := range result.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}
