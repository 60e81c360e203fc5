package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ipcTimeout bounds the whole exchange with a running mpv.
const ipcTimeout = 500 * time.Millisecond

const loadfileRequestID = 1

// mpv JSON IPC, see https://mpv.io/manual/stable/#json-ipc
type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

type ipcResponse struct {
	RequestID int    `json:"request_id,omitempty"`
	Error     string `json:"error"`
	Event     string `json:"event,omitempty"`
}

// enqueue asks the mpv listening on path to play target, replacing whatever
// it is playing.
func enqueue(ctx context.Context, path, target string) error {
	ctx, cancel := context.WithTimeout(ctx, ipcTimeout)
	defer cancel()

	conn, err := dialIPC(ctx, path)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	data, err := json.Marshal(ipcRequest{
		Command:   []any{"loadfile", target, "replace"},
		RequestID: loadfileRequestID,
	})
	if err != nil {
		return err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("send loadfile: %w", err)
	}

	// mpv interleaves events with replies; skip until ours arrives.
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var resp ipcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}
		if resp.Event != "" || resp.RequestID != loadfileRequestID {
			continue
		}
		if resp.Error != "success" {
			return fmt.Errorf("mpv rejected loadfile: %s", resp.Error)
		}
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	return io.ErrUnexpectedEOF
}
