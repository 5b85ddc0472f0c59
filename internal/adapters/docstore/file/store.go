package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/botctl/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

const (
	documentFileMode  = 0o600
	documentDirMode   = 0o700
	documentExtension = ".toml"
	tempFilePattern   = ".doc-*.toml.tmp"
	DefaultDebounce   = 50 * time.Millisecond
)

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

// Store keeps one TOML file per document path under root. Processes sharing
// root see each other's writes through filesystem notifications.
type Store struct {
	root     string
	debounce time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

var _ ports.DocumentStore = (*Store)(nil)

type Options struct {
	Root     string
	Debounce time.Duration
	Logger   zerolog.Logger
}

func NewStore(opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Root) == "" {
		return nil, errors.New("document store root is empty")
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve document store root: %w", err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Store{
		root:     filepath.Clean(root),
		debounce: debounce,
		logger:   opts.Logger.With().Str("component", "filestore").Logger(),
		now:      time.Now,
	}, nil
}

func (s *Store) Write(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	filePath, err := s.filePath(path)
	if err != nil {
		return err
	}

	mu := lockForPath(filePath)
	mu.Lock()
	defer mu.Unlock()

	doc, _, err := readDocument(filePath)
	if err != nil {
		return err
	}
	doc.applyDefaults()
	doc.merge(fields)
	doc.UpdatedAt = s.now().UTC()

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeDocument(filePath, doc)
}

func (s *Store) Subscribe(ctx context.Context, path string) (ports.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.filePath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), documentDirMode); err != nil {
		return nil, fmt.Errorf("create document directory: %w", err)
	}

	return newWatchSubscription(ctx, filePath, s.debounce, s.logger)
}

// read loads the document at path without subscribing.
func (s *Store) read(ctx context.Context, path string) (ports.SnapshotEvent, error) {
	if err := ctx.Err(); err != nil {
		return ports.SnapshotEvent{}, err
	}

	filePath, err := s.filePath(path)
	if err != nil {
		return ports.SnapshotEvent{}, err
	}

	return snapshotFile(filePath)
}

func (s *Store) filePath(path string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return "", errors.New("document path is empty")
	}

	for _, segment := range strings.Split(trimmed, "/") {
		if segment == "" || segment == "." || segment == ".." || strings.ContainsAny(segment, `\:`) {
			return "", fmt.Errorf("invalid document path %q", path)
		}
	}

	return filepath.Join(s.root, filepath.FromSlash(trimmed)) + documentExtension, nil
}

func snapshotFile(filePath string) (ports.SnapshotEvent, error) {
	mu := lockForPath(filePath)
	mu.RLock()
	defer mu.RUnlock()

	doc, exists, err := readDocument(filePath)
	if err != nil {
		return ports.SnapshotEvent{}, err
	}
	if !exists {
		return ports.SnapshotEvent{Exists: false}, nil
	}

	return ports.SnapshotEvent{Exists: true, Data: doc.Fields}, nil
}

func readDocument(filePath string) (documentFile, bool, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return documentFile{}, false, nil
		}
		return documentFile{}, false, fmt.Errorf("read document file: %w", err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return documentFile{}, false, err
	}

	return doc, true, nil
}

func decodeDocument(data []byte) (documentFile, error) {
	var doc documentFile
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return documentFile{}, fmt.Errorf("decode document file: %w", err)
	}
	if err := doc.validateVersion(); err != nil {
		return documentFile{}, err
	}
	doc.applyDefaults()

	return doc, nil
}

func writeDocument(filePath string, doc documentFile) error {
	doc.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(filePath), documentDirMode); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp document file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp document file: %w", err)
	}

	if err := tempFile.Chmod(documentFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp document file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp document file: %w", err)
	}

	if err := os.Rename(tempName, filePath); err != nil {
		return fmt.Errorf("replace document file: %w", err)
	}

	cleanup = false
	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
