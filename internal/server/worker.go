// FilePath: internal/server/worker.go
package server

import (
	"context"
	"encoding/json"
	"net"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/errors"
	"github.com/skyfield/archivehub/internal/executor"
	"github.com/skyfield/archivehub/internal/models"
	"github.com/skyfield/archivehub/internal/monitoring"
)

// wireError is the error shape sent to clients.
type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// response is the envelope for every reply: either OK with a result or a
// coded error.
type response struct {
	OK     bool       `json:"ok"`
	Error  *wireError `json:"error,omitempty"`
	Result any        `json:"result,omitempty"`
}

// Worker handles one connection at a time: decode a single command, run it,
// write the reply, close. Availability is managed by the pool.
type Worker struct {
	id        string
	exec      *executor.Executor
	metrics   *monitoring.Service
	available bool
	lastUsed  time.Time
}

func newWorker(exec *executor.Executor, metrics *monitoring.Service) *Worker {
	return &Worker{
		id:       nuts.NID("wrk", 8),
		exec:     exec,
		metrics:  metrics,
		lastUsed: time.Now(),
	}
}

// Handle serves one client connection. The connection is always closed
// before returning.
func (w *Worker) Handle(ctx context.Context, conn net.Conn, readTimeout, writeTimeout time.Duration) {
	defer conn.Close()

	if readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
	// A client that cannot produce a well-formed command gets no reply,
	// just a closed connection.
	var cmd models.StorageCommand
	if err := json.NewDecoder(conn).Decode(&cmd); err != nil {
		nuts.L.Warnf("[Worker] %s could not decode command from %s: %v", w.id, conn.RemoteAddr(), err)
		w.metrics.RecordEvent("command_undecodable", nil)
		return
	}

	nuts.L.Debugf("[Worker] %s handling %s from %s", w.id, cmd.Type, conn.RemoteAddr())
	result, err := w.exec.Execute(ctx, &cmd)
	if err != nil {
		nuts.L.Warnf("[Worker] %s command %s failed: %v", w.id, cmd.Type, err)
		w.metrics.RecordEvent("command_failed", map[string]string{"type": string(cmd.Type)})
	} else {
		w.metrics.RecordEvent("command_"+string(cmd.Type), nil)
	}
	w.reply(conn, writeTimeout, result, err)
}

func (w *Worker) reply(conn net.Conn, writeTimeout time.Duration, result any, err error) {
	if writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	}
	resp := response{OK: err == nil, Result: result}
	if err != nil {
		resp.Error = &wireError{Code: errors.CodeOf(err), Message: err.Error()}
	}
	if encodeErr := json.NewEncoder(conn).Encode(resp); encodeErr != nil {
		nuts.L.Warnf("[Worker] %s could not write reply to %s: %v", w.id, conn.RemoteAddr(), encodeErr)
	}
}
