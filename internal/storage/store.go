// Package storage keeps uploaded workbooks and extracted images in
// per-session directories.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"

	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
)

const (
	// WorkbookFileName is the name the uploaded workbook is stored under.
	WorkbookFileName = "workbook.xlsx"
	manifestFileName = "manifest.json"
	defaultImageName = "chip_image"
)

var (
	// ErrSessionNotFound indicates an unknown or malformed session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrFileNotFound indicates a name that is not a stored session file.
	ErrFileNotFound = errors.New("file not found")
)

// Store creates and opens sessions below a root directory. Sessions opened
// from the same Store serialize their manifest updates.
type Store struct {
	root   string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates root if needed.
func NewStore(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &Store{root: root, logger: logger, locks: make(map[string]*sync.Mutex)}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Create starts a new session with a fresh ULID.
func (s *Store) Create() (*Session, error) {
	id := ulid.Make().String()
	dir := filepath.Join(s.root, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session %s: %w", id, err)
	}

	sess := s.session(id, dir)
	m := Manifest{CreatedAt: time.Now().UTC(), Images: map[string]string{}}
	if err := sess.writeManifest(m); err != nil {
		return nil, err
	}
	sess.logger.Debug("session created")
	return sess, nil
}

// Open returns an existing session. Ids that are not ULIDs never touch the
// file system.
func (s *Store) Open(id string) (*Session, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	dir := filepath.Join(s.root, id)
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return s.session(id, dir), nil
}

func (s *Store) session(id, dir string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return &Session{ID: id, dir: dir, store: s, lock: lock, logger: s.logger.With("session", id)}
}

func (s *Store) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}

// Manifest records what a session holds.
type Manifest struct {
	OriginalName string    `json:"original_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	// Images maps a sheet name to its stored image file name.
	Images map[string]string `json:"images"`
}

// Session is one upload directory.
type Session struct {
	ID     string
	dir    string
	store  *Store
	lock   *sync.Mutex
	logger *slog.Logger
}

// Dir returns the session directory.
func (s *Session) Dir() string {
	return s.dir
}

// Remove deletes the session and everything stored in it.
func (s *Session) Remove() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	err := os.RemoveAll(s.dir)
	s.store.forget(s.ID)
	return err
}

// WorkbookPath returns where the uploaded workbook is stored.
func (s *Session) WorkbookPath() string {
	return filepath.Join(s.dir, WorkbookFileName)
}

// SaveWorkbook stores the uploaded workbook and remembers its original name.
func (s *Session) SaveWorkbook(originalName string, r io.Reader) (int64, error) {
	n, err := writeFileAtomic(s.dir, WorkbookFileName, r)
	if err != nil {
		return n, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	m, err := s.Manifest()
	if err != nil {
		return n, err
	}
	m.OriginalName = SanitizeFilename(originalName, WorkbookFileName)
	return n, s.writeManifest(m)
}

// SaveImage stores the picture of a sheet and returns its file name. A sheet
// is stored once; later calls return the recorded name. BMP and TIFF media
// are converted to PNG.
func (s *Session) SaveImage(sheet string, asset models.ImageAsset) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	m, err := s.Manifest()
	if err != nil {
		return "", err
	}
	if name, ok := m.Images[sheet]; ok {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			return name, nil
		}
	}

	data, ext, err := browserImage(asset)
	if err != nil {
		return "", fmt.Errorf("image of sheet %q: %w", sheet, err)
	}

	base := SanitizeFilename(sheet, defaultImageName)
	name := UniqueName(s.dir, base+ext)
	if _, err := writeFileAtomic(s.dir, name, bytes.NewReader(data)); err != nil {
		return "", err
	}

	m.Images[sheet] = name
	if err := s.writeManifest(m); err != nil {
		return "", err
	}
	s.logger.Debug("image stored", "sheet", sheet, "file", name, "source", asset.SourcePartPath)
	return name, nil
}

// FilePath resolves a stored file name to its path. Names that are not a
// single path element are rejected.
func (s *Session) FilePath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || name == manifestFileName {
		return "", fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}
	path := filepath.Join(s.dir, name)
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}
	return path, nil
}

// Manifest reads the session manifest.
func (s *Session) Manifest() (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(s.dir, manifestFileName))
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Images == nil {
		m.Images = map[string]string{}
	}
	return m, nil
}

func (s *Session) writeManifest(m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	_, err = writeFileAtomic(s.dir, manifestFileName, bytes.NewReader(data))
	return err
}

// browserImage returns the bytes and extension to serve for asset.
func browserImage(asset models.ImageAsset) ([]byte, string, error) {
	ext := strings.ToLower(asset.Extension)
	switch ext {
	case ".bmp", ".tif", ".tiff":
		img, err := imaging.Decode(bytes.NewReader(asset.Bytes))
		if err != nil {
			return nil, "", fmt.Errorf("decode %s: %w", ext, err)
		}
		buf := new(bytes.Buffer)
		if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), ".png", nil
	case "":
		return asset.Bytes, ".bin", nil
	default:
		return asset.Bytes, ext, nil
	}
}
