package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/ytget/yt-archiver/internal/checksum"
	"github.com/ytget/yt-archiver/internal/model"
)

// Manifest hashes every regular file below dir. Paths are relative to root.
// Records come in lexical walk order.
func Manifest(root, dir string, obs checksum.Observer) ([]model.FileRecord, error) {
	var files []model.FileRecord

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("could not stat output file %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		sum, err := checksum.File(path, obs)
		if err != nil {
			return err
		}
		rel, err := RelPath(root, path)
		if err != nil {
			return err
		}
		files = append(files, model.FileRecord{Path: rel, Hash: sum, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// TreeDigest digests the manifest as its SHA256SUMS rendering, so equal trees
// yield equal digests.
func TreeDigest(files []model.FileRecord) string {
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\n", Entry{Hex: f.Hash, Path: f.Path})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TreeSize sums the file sizes of a manifest
func TreeSize(files []model.FileRecord) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
