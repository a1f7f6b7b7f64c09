// Package file implements the single writer that owns the shared log file.
//
// A Subscriber is the only component that ever touches the file handle. It
// takes lines from a broker one at a time, in the order the broker hands them
// out, and writes and flushes each before taking the next. A failed write or
// flush is reported on the diagnostic logger and the line is dropped; the
// loop keeps going.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/predatorx7/logshipper/pkg/broker"
	"github.com/predatorx7/logshipper/pkg/model"
)

// State is the lifecycle stage of a Subscriber.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Subscriber struct {
	Broker broker.Subscriber
	Path   string

	log     logrus.FieldLogger
	session string

	file *os.File
	dst  *countingWriter
	out  *bufio.Writer

	state                     atomic.Int32
	writtenCount, failedCount atomic.Uint64
}

// NewSubscriber creates a writer for the log file at path. The file is not
// opened until Open or Start is called.
func NewSubscriber(b broker.Subscriber, path string, log logrus.FieldLogger) *Subscriber {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Subscriber{
		Broker:  b,
		Path:    path,
		log:     log,
		session: uuid.NewString(),
	}
}

// NewWriterSubscriber creates a writer over an already open destination.
// name is only used in diagnostics.
func NewWriterSubscriber(b broker.Subscriber, w io.Writer, name string, log logrus.FieldLogger) *Subscriber {
	s := NewSubscriber(b, name, log)
	s.dst = &countingWriter{w: w}
	s.out = bufio.NewWriter(s.dst)
	return s
}

// Open opens the log file for appending, creating it if needed.
func (s *Subscriber) Open() error {
	if s.out != nil {
		return nil
	}
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("unable to open log file %s: %w", s.Path, err)
	}
	s.file = f
	s.dst = &countingWriter{w: f}
	s.out = bufio.NewWriter(s.dst)
	return nil
}

// Start runs the receive/write/flush loop until the broker is closed and
// drained (returns nil) or ctx is done (returns ctx.Err()).
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.Open(); err != nil {
		s.state.Store(int32(StateTerminated))
		return err
	}

	log := s.log.WithFields(logrus.Fields{
		"component": "writer",
		"path":      s.Path,
		"session":   s.session,
	})
	log.Info("Starting file writer")
	s.state.Store(int32(StateRunning))
	defer s.state.Store(int32(StateTerminated))

	for {
		line, err := s.Broker.Receive(ctx)
		if err != nil {
			if errors.Is(err, broker.ErrClosed) {
				log.Info("Intake closed, file writer exiting")
				return nil
			}
			return err
		}
		s.write(log, line)
	}
}

func (s *Subscriber) write(log logrus.FieldLogger, line model.Line) {
	s.dst.n = 0
	if _, err := s.out.WriteString(string(line)); err != nil {
		s.drop(log, "Error while writing to log file", err)
		return
	}
	if err := s.out.Flush(); err != nil {
		s.drop(log, "Error while flushing log file", err)
		return
	}
	s.writtenCount.Add(1)
}

// drop discards whatever is buffered; bufio keeps an error sticky otherwise.
// If part of the line already reached the file it is terminated, so the
// next line starts on its own.
func (s *Subscriber) drop(log logrus.FieldLogger, msg string, err error) {
	s.failedCount.Add(1)
	log.WithError(err).WithField("partial_bytes", s.dst.n).Error(msg)
	s.out.Reset(s.dst)

	if s.dst.n == 0 || s.dst.endsLine {
		return
	}
	if _, err := s.dst.Write([]byte{'\n'}); err != nil {
		log.WithError(err).Error("Error while terminating partial line")
	}
}

// countingWriter records how many bytes of the current line reached w and
// whether the last of them was a newline.
type countingWriter struct {
	w        io.Writer
	n        int
	endsLine bool
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if n > 0 && n <= len(p) {
		c.n += n
		c.endsLine = p[n-1] == '\n'
	}
	return n, err
}

// Close releases the file handle if this Subscriber opened it.
// It must not be called while Start is running.
func (s *Subscriber) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.out = nil
	return err
}

func (s *Subscriber) State() State {
	return State(s.state.Load())
}

// Stats returns the number of lines written and dropped so far.
func (s *Subscriber) Stats() (written, failed uint64) {
	return s.writtenCount.Load(), s.failedCount.Load()
}
