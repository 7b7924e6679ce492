// Package edgar provides caching for SEC EDGAR filings.
package edgar

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DocumentCache provides file-based caching for downloaded filing documents
type DocumentCache struct {
	cacheDir string
}

// NewDocumentCache creates a new document cache
// Cache directory defaults to .cache/edgar/documents in the current working directory
func NewDocumentCache() *DocumentCache {
	cacheDir := filepath.Join(".cache", "edgar", "documents")
	os.MkdirAll(cacheDir, 0755)
	return &DocumentCache{cacheDir: cacheDir}
}

// NewDocumentCacheWithDir creates a cache with a custom directory
func NewDocumentCacheWithDir(dir string) *DocumentCache {
	os.MkdirAll(dir, 0755)
	return &DocumentCache{cacheDir: dir}
}

// cacheKey generates a unique key for a document within a filing
func (c *DocumentCache) cacheKey(accession, name string) string {
	// Normalize accession number (remove dashes)
	accession = strings.ReplaceAll(accession, "-", "")
	return fmt.Sprintf("%s_%x", accession, md5.Sum([]byte(name)))
}

// filePath returns the file path for a cache entry
func (c *DocumentCache) filePath(key string) string {
	return filepath.Join(c.cacheDir, key+".html")
}

// Get retrieves a cached document
// Returns empty string if not cached
func (c *DocumentCache) Get(accession, name string) string {
	key := c.cacheKey(accession, name)
	path := c.filePath(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	return string(data)
}

// Set stores a document in the cache
func (c *DocumentCache) Set(accession, name, content string) error {
	key := c.cacheKey(accession, name)
	path := c.filePath(key)

	return os.WriteFile(path, []byte(content), 0644)
}

// Has checks if a document is cached
func (c *DocumentCache) Has(accession, name string) bool {
	key := c.cacheKey(accession, name)
	path := c.filePath(key)

	_, err := os.Stat(path)
	return err == nil
}

// GetCacheDir returns the cache directory path
func (c *DocumentCache) GetCacheDir() string {
	return c.cacheDir
}

// ClearCache removes all cached files
func (c *DocumentCache) ClearCache() error {
	return os.RemoveAll(c.cacheDir)
}

// ContentHash returns MD5 hash of content for verification
func ContentHash(content string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}
