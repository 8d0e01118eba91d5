package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// ReceiptStore keeps uploaded payment receipts on local disk.
type ReceiptStore struct {
	dir string
	now func() time.Time
}

func NewReceiptStore(dir string) (*ReceiptStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipt dir: %w", err)
	}
	return &ReceiptStore{dir: dir, now: time.Now}, nil
}

func (s *ReceiptStore) Dir() string { return s.dir }

// FileName is receipt_{orderId}_{unix-ms}.{ext}.
func (s *ReceiptStore) FileName(orderID, ext string) string {
	return s.fileName(orderID, ext, 0)
}

// fileName adds -{attempt} after the timestamp once the plain name is taken.
func (s *ReceiptStore) fileName(orderID, ext string, attempt int) string {
	base := fmt.Sprintf("receipt_%s_%d", unsafeChars.ReplaceAllString(orderID, "_"), s.now().UnixMilli())
	if attempt > 0 {
		base = fmt.Sprintf("%s-%d", base, attempt)
	}
	return base + "." + ext
}

const maxNameAttempts = 5

// Save writes r under a fresh name and returns the stored file name. A partly
// written file is removed before returning an error.
func (s *ReceiptStore) Save(orderID, ext string, r io.Reader) (name string, err error) {
	var (
		f    *os.File
		path string
	)
	for attempt := 0; ; attempt++ {
		name = s.fileName(orderID, ext, attempt)
		path = filepath.Join(s.dir, name)
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) || attempt+1 >= maxNameAttempts {
			return "", fmt.Errorf("create receipt file: %w", err)
		}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close receipt file: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
			name = ""
		}
	}()

	if _, err = io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write receipt file: %w", err)
	}
	return name, nil
}

func (s *ReceiptStore) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *ReceiptStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Lookup returns the path of a stored receipt. Names that are not plain file
// names of this store are refused.
func (s *ReceiptStore) Lookup(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || !strings.HasPrefix(name, "receipt_") {
		return "", false
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}
