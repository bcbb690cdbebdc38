package mcp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Transport abstracts the subprocess carrying the JSON-RPC stream so the
// protocol logic can be tested against an in-memory peer.
type Transport interface {
	// Start launches the peer. Must be called before any read or write.
	Start() error
	// WriteLine sends one JSON message followed by a newline.
	WriteLine(data []byte) error
	// ReadLine blocks until the next line from the peer is available.
	ReadLine() (string, error)
	// Alive reports whether the peer can still be written to.
	Alive() bool
	// Terminate shuts the peer down. Safe to call more than once.
	Terminate() error
}

// terminateWait bounds how long graceful shutdown waits before killing.
const terminateWait = 2 * time.Second

// stdioTransport runs the MCP server as a child process with its standard
// streams piped. Stdin carries outgoing messages, stdout incoming ones;
// stderr is the child's own diagnostic noise and is left attached to ours.
type stdioTransport struct {
	command []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader

	writeMu sync.Mutex

	exitOnce sync.Once
	exited   chan struct{}

	termOnce sync.Once
}

// NewStdioTransport creates a transport that will spawn the given command.
func NewStdioTransport(command []string) Transport {
	return &stdioTransport{
		command: command,
		exited:  make(chan struct{}),
	}
}

func (t *stdioTransport) Start() error {
	if len(t.command) == 0 {
		return fmt.Errorf("empty server command")
	}

	path, err := exec.LookPath(t.command[0])
	if err != nil {
		return fmt.Errorf("server command not found: %s", t.command[0])
	}

	cmd := exec.Command(path, t.command[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.reader = bufio.NewReader(stdout)

	go func() {
		cmd.Wait()
		t.exitOnce.Do(func() { close(t.exited) })
	}()

	return nil
}

func (t *stdioTransport) WriteLine(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.stdin == nil {
		return fmt.Errorf("transport not started")
	}
	if _, err := fmt.Fprintf(t.stdin, "%s\n", data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

func (t *stdioTransport) ReadLine() (string, error) {
	if t.reader == nil {
		return "", fmt.Errorf("transport not started")
	}
	return t.reader.ReadString('\n')
}

func (t *stdioTransport) Alive() bool {
	if t.cmd == nil {
		return false
	}
	select {
	case <-t.exited:
		return false
	default:
		return true
	}
}

func (t *stdioTransport) Terminate() error {
	if t.cmd == nil {
		return nil
	}

	t.termOnce.Do(func() {
		// Closing stdin tells a well-behaved server to exit
		if t.stdin != nil {
			t.stdin.Close()
		}

		select {
		case <-t.exited:
			return
		case <-time.After(terminateWait):
		}

		if t.cmd.Process != nil {
			t.cmd.Process.Kill()
		}

		select {
		case <-t.exited:
		case <-time.After(terminateWait):
		}
	})

	return nil
}
