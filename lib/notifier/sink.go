package notifier

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// DefaultFile is the file the channel info snapshots are appended to.
const DefaultFile = "channelinfo.txt"

// FileSink appends snapshots to a text file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink returns a sink appending to path, DefaultFile if empty.
func NewFileSink(path string) *FileSink {
	if path == "" {
		path = DefaultFile
	}
	return &FileSink{path: path}
}

// Write appends a header line followed by the snapshot data.
func (f *FileSink) Write(_ context.Context, s Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	nl := ""
	if len(s.Data) == 0 || s.Data[len(s.Data)-1] != '\n' {
		nl = "\n"
	}
	_, err = fmt.Fprintf(file, "# %s %s (%s)\n%s%s", s.Taken.Format(time.RFC3339), s.Source, s.Reason, s.Data, nl)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (f *FileSink) Close() error {
	return nil
}
