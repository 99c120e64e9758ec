package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// AsyncFileWriter writes log records to a file from a background goroutine,
// so logging never blocks the interpreter. Records that do not fit in the
// buffer are dropped. With a rotation period, a new file is started when
// the period rolls over and filePath is kept as a symlink to it.
type AsyncFileWriter struct {
	filePath string
	rotate   time.Duration
	fd       *os.File
	current  string // path of the open file

	buf     chan []byte
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewAsyncFileWriter creates a writer buffering up to bufferSize records.
func NewAsyncFileWriter(filePath string, bufferSize int, rotate time.Duration) (*AsyncFileWriter, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "log file path %s", filePath)
	}
	return &AsyncFileWriter{
		filePath: abs,
		rotate:   rotate,
		buf:      make(chan []byte, bufferSize),
		stop:     make(chan struct{}),
	}, nil
}

// Start opens the log file and starts the writer goroutine.
func (w *AsyncFileWriter) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("logger has already been started")
	}
	if err := w.openFile(time.Now()); err != nil {
		return err
	}
	w.started = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case msg := <-w.buf:
				w.syncWrite(msg)
			case <-w.stop:
				w.flushBuffer()
				if err := w.closeFile(); err != nil {
					fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
				}
				return
			}
		}
	}()
	return nil
}

// Stop writes out the buffered records and closes the file.
func (w *AsyncFileWriter) Stop() {
	w.mu.Lock()
	started := w.started
	w.started = false
	w.mu.Unlock()
	if !started {
		return
	}
	close(w.stop)
	w.wg.Wait()
}

// Write queues a copy of msg. It never blocks and never fails; a full
// buffer drops the record.
func (w *AsyncFileWriter) Write(msg []byte) (int, error) {
	buf := make([]byte, len(msg))
	copy(buf, msg)
	select {
	case w.buf <- buf:
	default:
	}
	return len(msg), nil
}

func (w *AsyncFileWriter) flushBuffer() {
	for {
		select {
		case msg := <-w.buf:
			w.syncWrite(msg)
		default:
			return
		}
	}
}

func (w *AsyncFileWriter) syncWrite(msg []byte) {
	if now := time.Now(); w.rotate > 0 && w.timeFilePath(now) != w.current {
		if err := w.closeFile(); err != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
		}
		if err := w.openFile(now); err != nil {
			fmt.Fprintf(os.Stderr, "rotate log file: %v\n", err)
		}
	}
	if w.fd != nil {
		w.fd.Write(msg)
	}
}

func (w *AsyncFileWriter) openFile(now time.Time) error {
	path := w.timeFilePath(now)
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.fd, w.current = fd, path
	if path == w.filePath {
		return nil
	}
	if _, err := os.Lstat(w.filePath); err == nil {
		if err := os.Remove(w.filePath); err != nil {
			return err
		}
	}
	return os.Symlink(path, w.filePath)
}

func (w *AsyncFileWriter) closeFile() error {
	if w.fd == nil {
		return nil
	}
	fd := w.fd
	w.fd = nil
	if err := fd.Sync(); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

// timeFilePath returns the file the records written at now go to.
func (w *AsyncFileWriter) timeFilePath(now time.Time) string {
	if w.rotate <= 0 {
		return w.filePath
	}
	return w.filePath + "." + now.Truncate(w.rotate).Format("2006-01-02_15-04")
}
