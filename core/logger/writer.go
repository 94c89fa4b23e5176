package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// writeOp is either a log line or, when ack is set, a flush barrier.
type writeOp struct {
	line []byte
	ack  chan error
}

// asyncWriter serializes log lines onto a single goroutine that fans them
// out to every sink.
type asyncWriter struct {
	ops   chan writeOp
	done  chan struct{}
	close sync.Once

	mu    sync.Mutex
	sinks []*bufio.Writer
	err   error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		ops:  make(chan writeOp, 256),
		done: make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for op := range w.ops {
		if op.ack != nil {
			op.ack <- w.flushSinks()
			continue
		}
		w.writeSinks(op.line)
	}
	_ = w.flushSinks()
}

// Write queues a copy of p. It blocks when the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.failure(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.ops <- writeOp{line: append([]byte(nil), p...)}
	return nil
}

// Flush returns once every line queued before it has reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.failure(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.ops <- writeOp{ack: ack}
	return <-ack
}

// Close drains pending lines and stops the writer goroutine.
func (w *asyncWriter) Close() error {
	w.close.Do(func() { close(w.ops) })
	<-w.done
	return w.failure()
}

func (w *asyncWriter) writeSinks(p []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if _, err := s.Write(p); err != nil {
			w.fail(err)
			return
		}
		if err := s.Flush(); err != nil {
			w.fail(err)
			return
		}
	}
}

func (w *asyncWriter) flushSinks() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fail records the first write error; callers hold mu.
func (w *asyncWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *asyncWriter) failure() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
