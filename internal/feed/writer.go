package feed

import (
	"errors"
	"fmt"
	"os"

	"github.com/mmcdole/gofeed"

	"articlefeed/internal/logger"
	"articlefeed/internal/models"
)

// Writer errors.
var (
	ErrNoOutput      = errors.New("no output path given")
	ErrUnknownFormat = errors.New("unknown feed format")
	ErrWrite         = errors.New("failed to write feed")
	ErrVerify        = errors.New("written feed failed verification")
)

// tempSuffix is appended to a target path for the sibling file written before rename.
const tempSuffix = ".new"

// Writer serializes feeds and replaces output files atomically.
type Writer struct {
	logger    *logger.Logger
	parser    *gofeed.Parser
	rename    func(oldpath, newpath string) error
	generator string
}

// NewWriter creates a writer that stamps documents with the given generator name.
func NewWriter(generator string, log *logger.Logger) *Writer {
	return &Writer{
		logger:    log,
		parser:    gofeed.NewParser(),
		rename:    os.Rename,
		generator: generator,
	}
}

// Write writes the ATOM document to atomPath and then the RSS document to rssPath.
// An empty path skips that format. A format committed before a later failure stays
// in place.
func (w *Writer) Write(f *models.Feed, atomPath, rssPath string) error {
	if atomPath == "" && rssPath == "" {
		return ErrNoOutput
	}

	targets := []struct {
		format Format
		path   string
	}{
		{FormatAtom, atomPath},
		{FormatRSS, rssPath},
	}

	for _, target := range targets {
		if target.path == "" {
			continue
		}

		if err := w.WriteFormat(target.format, f, target.path); err != nil {
			return err
		}
	}

	return nil
}

// WriteFormat serializes f in one format and atomically replaces path with it.
func (w *Writer) WriteFormat(format Format, f *models.Feed, path string) error {
	data, err := Marshal(format, f, w.generator)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, format, err)
	}

	if err := w.commit(format, path, data, len(f.Entries)); err != nil {
		return err
	}

	w.logger.Info("feed written", "format", format, "path", path, "entries", len(f.Entries), "bytes", len(data))

	return nil
}

// commit writes data to path+".new", verifies it parses back as a feed with the
// expected number of items and renames it over path. The temporary file is removed
// on failure.
func (w *Writer) commit(format Format, path string, data []byte, wantItems int) error {
	tmp := path + tempSuffix

	if err := writeFileSync(tmp, data); err != nil {
		w.discard(tmp)

		return fmt.Errorf("%w: %s feed to %s: %w", ErrWrite, format, path, err)
	}

	if err := w.verify(tmp, format, wantItems); err != nil {
		w.discard(tmp)

		return fmt.Errorf("%w: %s feed to %s: %w", ErrVerify, format, path, err)
	}

	if err := w.rename(tmp, path); err != nil {
		w.discard(tmp)

		return fmt.Errorf("%w: %s feed to %s: %w", ErrWrite, format, path, err)
	}

	return nil
}

func (w *Writer) verify(path string, format Format, wantItems int) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	parsed, err := w.parser.Parse(file)
	if err != nil {
		return err
	}

	if parsed.FeedType != string(format) {
		return fmt.Errorf("parsed as %q", parsed.FeedType)
	}

	if len(parsed.Items) != wantItems {
		return fmt.Errorf("parsed %d items, want %d", len(parsed.Items), wantItems)
	}

	return nil
}

func (w *Writer) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		w.logger.Warn("failed to remove temporary feed file", "path", path, "error", err)
	}
}

// writeFileSync writes data to path and flushes it to stable storage.
func writeFileSync(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := file.Write(data); err != nil {
		file.Close()

		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()

		return err
	}

	return file.Close()
}
