package ocr

import (
	"context"
	"crypto/sha256"
	"os"

	"github.com/coocood/freecache"

	"github.com/joern1811/wapay/internal/domain"
	"github.com/joern1811/wapay/internal/metrics"
)

// CachedOCR remembers OCR results by image content so identical
// screenshots forwarded twice cost one call.
type CachedOCR struct {
	next    domain.OCR
	cache   *freecache.Cache
	metrics metrics.Recorder
}

// NewCachedOCR wraps next with a cache of sizeMB megabytes. A size of zero
// or less disables caching.
func NewCachedOCR(next domain.OCR, sizeMB int, rec metrics.Recorder) domain.OCR {
	if sizeMB <= 0 {
		return next
	}
	if rec == nil {
		rec = metrics.Noop()
	}
	return &CachedOCR{
		next:    next,
		cache:   freecache.NewCache(sizeMB * 1024 * 1024),
		metrics: rec,
	}
}

func (c *CachedOCR) ExtractText(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return c.next.ExtractText(ctx, imagePath)
	}
	sum := sha256.Sum256(data)
	key := sum[:]

	if val, err := c.cache.Get(key); err == nil {
		c.metrics.IncOCRCache(true)
		return string(val), nil
	}
	c.metrics.IncOCRCache(false)

	text, err := c.next.ExtractText(ctx, imagePath)
	if err != nil {
		return "", err
	}
	_ = c.cache.Set(key, []byte(text), 0)
	return text, nil
}
