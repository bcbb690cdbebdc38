package mcp

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// fakeTransport is an in-memory peer for testing the protocol logic without
// spawning a real process. A handler inspects each written request and may
// return a response, which is queued for the reader.
type fakeTransport struct {
	mu       sync.Mutex
	started  bool
	closed   bool
	startErr error
	requests []JSONRPCRequest
	handler  func(req JSONRPCRequest) *JSONRPCResponse

	lines     chan string
	closeOnce sync.Once
}

func newFakeTransport(handler func(req JSONRPCRequest) *JSONRPCResponse) *fakeTransport {
	return &fakeTransport{
		handler: handler,
		lines:   make(chan string, 64),
	}
}

func (f *fakeTransport) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) WriteLine(data []byte) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return fmt.Errorf("transport closed")
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		f.mu.Unlock()
		return err
	}
	f.requests = append(f.requests, req)
	handler := f.handler
	f.mu.Unlock()

	if handler != nil {
		if resp := handler(req); resp != nil {
			f.pushResponse(resp)
		}
	}
	return nil
}

func (f *fakeTransport) ReadLine() (string, error) {
	line, ok := <-f.lines
	if !ok {
		return "", io.EOF
	}
	return line + "\n", nil
}

func (f *fakeTransport) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started && !f.closed
}

func (f *fakeTransport) Terminate() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.lines) })
	return nil
}

// pushLine queues a raw line for the reader, bypassing the handler.
func (f *fakeTransport) pushLine(line string) {
	f.lines <- line
}

func (f *fakeTransport) pushResponse(resp *JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	f.lines <- string(data)
}

func (f *fakeTransport) setHandler(handler func(req JSONRPCRequest) *JSONRPCResponse) {
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
}

func (f *fakeTransport) writtenRequests() []JSONRPCRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]JSONRPCRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeTransport) countCalls(method string) int {
	count := 0
	for _, req := range f.writtenRequests() {
		if req.Method == method {
			count++
		}
	}
	return count
}

// resultResponse builds a success response with a marshaled result payload.
func resultResponse(id *int64, result interface{}) *JSONRPCResponse {
	data, err := json.Marshal(result)
	if err != nil {
		panic(err)
	}
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: data}
}

func errorResponse(id *int64, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: -32603, Message: message},
	}
}

// textResult builds a tools/call result with a single text block.
func textResult(id *int64, text string) *JSONRPCResponse {
	return resultResponse(id, CallToolResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	})
}

// docServerHandler behaves like a minimal documentation server: answers the
// handshake, the tool list, and the two documentation tools with canned text.
func docServerHandler(resolveText, docsText string) func(req JSONRPCRequest) *JSONRPCResponse {
	return func(req JSONRPCRequest) *JSONRPCResponse {
		switch req.Method {
		case "initialize":
			return resultResponse(req.ID, InitializeResult{
				ProtocolVersion: ProtocolVersion,
				ServerInfo:      ServerInfo{Name: "fake-context7", Version: "0.0.1"},
				Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
			})
		case "notifications/initialized":
			return nil
		case "tools/list":
			return resultResponse(req.ID, ListToolsResult{Tools: []Tool{
				{Name: ResolveToolName, Description: "Resolve a library name"},
				{Name: DocsToolName, Description: "Fetch library docs"},
			}})
		case "tools/call":
			params, _ := req.Params.(map[string]interface{})
			switch params["name"] {
			case ResolveToolName:
				return textResult(req.ID, resolveText)
			case DocsToolName:
				return textResult(req.ID, docsText)
			}
			return errorResponse(req.ID, "unknown tool")
		default:
			return errorResponse(req.ID, "method not found")
		}
	}
}
