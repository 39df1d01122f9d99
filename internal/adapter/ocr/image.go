package ocr

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".heic": "image/heic",
	".heif": "image/heif",
}

// readImage returns the image bytes and their MIME type.
func readImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading image %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image %s is empty", filepath.Base(path))
	}
	return data, mimeType(path, data), nil
}

func mimeType(path string, data []byte) string {
	if m := http.DetectContentType(data); strings.HasPrefix(m, "image/") {
		return m
	}
	if m, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return "image/jpeg"
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
