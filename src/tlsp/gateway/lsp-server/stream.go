package lspserver

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"go.lsp.dev/jsonrpc2"
)

type writeSignalKey struct{}

// writeSignal is closed once the message sent with its context has been written to the stream.
type writeSignal struct {
	once sync.Once
	ch   chan struct{}
}

func newWriteSignal() *writeSignal {
	return &writeSignal{ch: make(chan struct{})}
}

func (w *writeSignal) done() {
	w.once.Do(func() { close(w.ch) })
}

func withWriteSignal(ctx context.Context, w *writeSignal) context.Context {
	return context.WithValue(ctx, writeSignalKey{}, w)
}

// tracingStream reports completed writes and optionally copies every outgoing message to debug.
type tracingStream struct {
	jsonrpc2.Stream
	debug io.Writer
}

func (s *tracingStream) Write(ctx context.Context, msg jsonrpc2.Message) (int64, error) {
	n, err := s.Stream.Write(ctx, msg)
	if w, ok := ctx.Value(writeSignalKey{}).(*writeSignal); ok {
		w.done()
	}
	if err == nil && s.debug != nil {
		if data, mErr := json.Marshal(msg); mErr == nil {
			s.debug.Write(append(data, '\n'))
		}
	}
	return n, err
}
