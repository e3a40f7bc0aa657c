package raster

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// MaskCache provides thread-safe caching of decoded mask images to avoid
// redundant disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path. Once
// a mask is loaded, subsequent Load() calls for the same path return the
// cached copy without disk I/O. Binarization happens on demand in LoadRaster
// because the threshold is a per-call parameter.
//
// MaskCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := raster.NewMaskCache()
//	r, err := cache.LoadRaster("/tiles/1204-1539-12.png", raster.DefaultThreshold)
//	if err != nil {
//	    return err
//	}
//	cache.Evict("/tiles/1204-1539-12.png") // Optional: free memory
type MaskCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewMaskCache creates and initializes a new empty mask cache.
func NewMaskCache() *MaskCache {
	return &MaskCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves a mask image from the cache or decodes it from disk.
//
// Parameters:
//   - path: Absolute or relative file path. Any format registered with the
//     imaging package is accepted (PNG, JPEG, GIF, TIFF, BMP).
//
// The image is cached using the exact path string provided. Different paths
// to the same file will result in separate cache entries.
func (c *MaskCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mask: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// LoadRaster loads the mask at path and binarizes it at the given luminance
// level. A level of 0 selects non-zero semantics: every sample above 0 is
// foreground, matching 0/1 label masks.
func (c *MaskCache) LoadRaster(path string, level uint8) (*Raster, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	return Binarize(img, level), nil
}

// Binarize converts an image to a raster. Level 0 marks every non-zero
// luminance sample as foreground; any other level thresholds with FromImage.
func Binarize(img image.Image, level uint8) *Raster {
	if level == 0 {
		return FromNonZero(toGray(img))
	}
	return FromImage(img, level)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	g := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g.Set(x, y, img.At(x, y))
		}
	}
	return g
}

// Clear removes all masks from the cache.
func (c *MaskCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific mask from the cache by its path.
func (c *MaskCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached masks.
func (c *MaskCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// MaskInfo contains metadata about a loaded mask file.
type MaskInfo struct {
	// Width is the mask width in pixels.
	Width int `json:"width"`

	// Height is the mask height in pixels.
	Height int `json:"height"`

	// Format is the detected image format from the file extension.
	Format string `json:"format"`

	// ForegroundPixels counts pixels that binarize to foreground.
	ForegroundPixels int `json:"foreground_pixels"`

	// ForegroundPercent is ForegroundPixels as a share of all pixels (0-100).
	ForegroundPercent float64 `json:"foreground_percent"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadMaskInfo loads a mask into the cache and summarizes it.
//
// The format is determined by file extension:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - ".tif", ".tiff" -> "tiff"
//   - Other extensions -> "unknown"
func LoadMaskInfo(cache *MaskCache, path string, level uint8) (*MaskInfo, error) {
	r, err := cache.LoadRaster(path, level)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".tif", ".tiff":
		format = "tiff"
	}

	fg := r.Count()
	total := r.Width * r.Height
	pct := 0.0
	if total > 0 {
		pct = math.Round(float64(fg)/float64(total)*10000) / 100
	}

	return &MaskInfo{
		Width:             r.Width,
		Height:            r.Height,
		Format:            format,
		ForegroundPixels:  fg,
		ForegroundPercent: pct,
		FileSizeBytes:     stat.Size(),
	}, nil
}
