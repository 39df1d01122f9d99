// Package archive unpacks WhatsApp exports.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/joern1811/wapay/internal/domain"
)

// DefaultMaxFileSize caps every extracted file (decompression bombs).
const DefaultMaxFileSize int64 = 1 << 30

var (
	ErrUnsafePath = errors.New("archive entry escapes the extraction directory")
	ErrNoChatFile = errors.New("no .txt chat file found in export")
	ErrTooLarge   = errors.New("archive entry exceeds the size limit")
)

// Extractor opens WhatsApp exports, either a .zip file or an already
// extracted directory. Temporary directories are kept until Cleanup.
type Extractor struct {
	MaxFileSize int64

	tempDirs []string
}

func NewExtractor() *Extractor {
	return &Extractor{MaxFileSize: DefaultMaxFileSize}
}

// Open unpacks path if needed and locates the chat transcript and images.
func (e *Extractor) Open(path string) (*domain.Export, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}

	dir := path
	if !info.IsDir() {
		dir, err = os.MkdirTemp("", "wapay-*")
		if err != nil {
			return nil, fmt.Errorf("creating temp dir: %w", err)
		}
		e.tempDirs = append(e.tempDirs, dir)

		if err := e.extract(path, dir); err != nil {
			return nil, fmt.Errorf("extracting zip: %w", err)
		}
	}

	return Scan(dir)
}

// Cleanup removes every temporary directory created by Open.
func (e *Extractor) Cleanup() {
	for _, dir := range e.tempDirs {
		_ = os.RemoveAll(dir)
	}
	e.tempDirs = nil
}

// TempDirs lists the directories Open extracted into.
func (e *Extractor) TempDirs() []string {
	return append([]string(nil), e.tempDirs...)
}

// Scan finds the chat file and image files in an extracted export.
func Scan(dir string) (*domain.Export, error) {
	var texts, images []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if name == "__MACOSX" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, "._") {
			return nil
		}
		switch {
		case strings.EqualFold(filepath.Ext(name), ".txt"):
			texts = append(texts, path)
		case domain.IsImageFile(name):
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning export: %w", err)
	}

	chat := pickChatFile(texts)
	if chat == "" {
		return nil, ErrNoChatFile
	}

	sort.Strings(images)
	media := make([]domain.MediaAsset, 0, len(images))
	for _, p := range images {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(p), err)
		}
		media = append(media, domain.NewMediaAsset(p, info.ModTime().UTC()))
	}

	return &domain.Export{Dir: dir, ChatFile: chat, Media: media}, nil
}

// pickChatFile prefers iOS "_chat.txt", then Android "WhatsApp Chat with ...",
// then the first .txt in path order.
func pickChatFile(texts []string) string {
	if len(texts) == 0 {
		return ""
	}
	sort.Strings(texts)
	for _, t := range texts {
		if strings.HasSuffix(strings.ToLower(filepath.Base(t)), "_chat.txt") {
			return t
		}
	}
	for _, t := range texts {
		if strings.HasPrefix(strings.ToLower(filepath.Base(t)), "whatsapp chat") {
			return t
		}
	}
	return texts[0]
}

func (e *Extractor) extract(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		destPath, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o750); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
			return err
		}
		if err := e.extractFile(f, destPath); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

func (e *Extractor) extractFile(f *zip.File, destPath string) error {
	outFile, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	limit := e.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	n, err := io.Copy(outFile, io.LimitReader(rc, limit+1))
	if err != nil {
		return err
	}
	if n > limit {
		return ErrTooLarge
	}
	if !f.Modified.IsZero() {
		_ = os.Chtimes(destPath, f.Modified, f.Modified)
	}
	return nil
}

// safeJoin joins name under dir, rejecting absolute paths and ".." escapes.
func safeJoin(dir, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	dest := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return dest, nil
}
