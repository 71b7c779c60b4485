package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

type ipcCommand struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id,omitempty"`
}

// ipcMessage is any line mpv writes: a reply carries request_id and error,
// an event carries event.
type ipcMessage struct {
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID int64           `json:"request_id"`
	Event     string          `json:"event"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = 1 * time.Second
)

// errPropertyUnavailable is mpv's reply for properties that need loaded media.
var errPropertyUnavailable = errors.New("property unavailable")

// mpvError is an error reply; retrying cannot fix it.
type mpvError struct {
	reply string
}

func (e *mpvError) Error() string {
	return "mpv error: " + e.reply
}

var requestIDs atomic.Int64

// sendCommand runs command on a fresh connection, retrying transport failures.
func sendCommand(ctx context.Context, socketPath string, command ...any) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := doSendCommand(ctx, socketPath, command)
		if err == nil {
			return result, nil
		}

		var replyErr *mpvError
		if errors.As(err, &replyErr) || errors.Is(err, errPropertyUnavailable) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

// doSendCommand performs a single attempt. Events broadcast to the
// connection are skipped until the matching reply arrives.
func doSendCommand(ctx context.Context, socketPath string, command []any) (json.RawMessage, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	id := requestIDs.Add(1)
	payload, err := json.Marshal(ipcCommand{Command: command, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	deadline := time.Now().Add(readDeadline)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Event != "" || msg.RequestID != id {
			continue
		}

		switch msg.Error {
		case "", "success":
			return msg.Data, nil
		case errPropertyUnavailable.Error():
			return nil, errPropertyUnavailable
		default:
			return nil, &mpvError{reply: msg.Error}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return nil, fmt.Errorf("read: connection closed before reply %d", id)
}
