package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestExtractor_OpenZip(t *testing.T) {
	path := writeZip(t, map[string]string{
		"WhatsApp Chat with Flat Owners.txt": "15/03/2024, 09:00 - Alice: hi\n",
		"IMG-20240315-WA0001.jpg":            "jpeg",
		"media/IMG-20240316-WA0002.png":      "png",
		"__MACOSX/._IMG-20240315-WA0001.jpg": "junk",
		"notes.pdf":                          "pdf",
	})

	e := NewExtractor()
	defer e.Cleanup()

	export, err := e.Open(path)
	require.NoError(t, err)

	assert.Equal(t, "WhatsApp Chat with Flat Owners.txt", filepath.Base(export.ChatFile))
	require.Len(t, export.Media, 2)
	assert.Equal(t, "IMG-20240315-WA0001.jpg", export.Media[0].Filename)
	assert.Equal(t, "IMG-20240316-WA0002.png", export.Media[1].Filename)
	assert.Equal(t, "20240315", export.Media[0].NumericID)

	dirs := e.TempDirs()
	require.Len(t, dirs, 1)
	e.Cleanup()
	_, err = os.Stat(dirs[0])
	assert.True(t, os.IsNotExist(err))
}

func TestExtractor_PrefersIOSChatFile(t *testing.T) {
	path := writeZip(t, map[string]string{
		"_chat.txt": "[27/04/25, 12:44:30] Alice: hi\n",
		"a.txt":     "other",
	})
	e := NewExtractor()
	defer e.Cleanup()

	export, err := e.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "_chat.txt", filepath.Base(export.ChatFile))
}

func TestExtractor_RejectsZipSlip(t *testing.T) {
	path := writeZip(t, map[string]string{
		"../../evil.txt": "pwned",
	})
	e := NewExtractor()
	defer e.Cleanup()

	_, err := e.Open(path)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(filepath.Dir(filepath.Dir(e.TempDirs()[0])), "evil.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractor_SizeLimit(t *testing.T) {
	path := writeZip(t, map[string]string{
		"chat.txt": "0123456789",
	})
	e := NewExtractor()
	e.MaxFileSize = 4
	defer e.Cleanup()

	_, err := e.Open(path)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestExtractor_OpenDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "IMG-20240315-WA0001.JPG"), []byte("x"), 0o600))

	e := NewExtractor()
	export, err := e.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, export.Dir)
	assert.Len(t, export.Media, 1)
	assert.Empty(t, e.TempDirs())
}

func TestExtractor_NoChatFile(t *testing.T) {
	path := writeZip(t, map[string]string{"IMG-1.jpg": "x"})
	e := NewExtractor()
	defer e.Cleanup()

	_, err := e.Open(path)
	assert.ErrorIs(t, err, ErrNoChatFile)
}

func TestSafeJoin(t *testing.T) {
	dir := t.TempDir()
	_, err := safeJoin(dir, "/etc/passwd")
	assert.ErrorIs(t, err, ErrUnsafePath)
	_, err = safeJoin(dir, `..\evil`)
	assert.ErrorIs(t, err, ErrUnsafePath)

	p, err := safeJoin(dir, "a/../b.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.txt"), p)
}
