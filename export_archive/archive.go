// Package export_archive copies a finished export directory and its manifest
// to object storage through gocloud.dev/blob.
package export_archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"gocloud.dev/blob"

	em "github.com/isseis/go-salesforce-files-exporter/export_manifest"
)

// Summary counts what was uploaded.
type Summary struct {
	Objects int
	Bytes   int64
}

// ObjectPrefix returns the key prefix of an export directory: <prefix>/<dir name>.
func ObjectPrefix(prefix, exportDir string) string {
	return path.Join(prefix, filepath.Base(filepath.Clean(exportDir)))
}

// UploadURL opens the bucket at bucketURL (e.g. s3://bucket, gs://bucket, file:///path)
// and uploads exportDir into it. The driver for the URL scheme must be linked in by the caller.
func UploadURL(ctx context.Context, bucketURL, exportDir, prefix string) (Summary, error) {
	bkt, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return Summary{}, fmt.Errorf("open bucket: %w", err)
	}
	defer bkt.Close()
	return Upload(ctx, bkt, exportDir, prefix)
}

// Upload copies every regular file directly inside exportDir to <prefix>/<dir name>/<file>,
// followed by the manifest (when present) as <prefix>/<dir name>.manifest.json.
// Files are uploaded in lexical order and the first failure stops the upload.
func Upload(ctx context.Context, bkt *blob.Bucket, exportDir, prefix string) (Summary, error) {
	var sum Summary
	entries, err := os.ReadDir(exportDir)
	if err != nil {
		return sum, fmt.Errorf("read export directory: %w", err)
	}

	keyPrefix := ObjectPrefix(prefix, exportDir)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		n, err := uploadFile(ctx, bkt, filepath.Join(exportDir, entry.Name()), keyPrefix+"/"+entry.Name())
		if err != nil {
			return sum, err
		}
		sum.Objects++
		sum.Bytes += n
	}

	manifest := em.PathFor(exportDir)
	if _, err := os.Stat(manifest); err == nil {
		n, err := uploadFile(ctx, bkt, manifest, keyPrefix+".manifest.json")
		if err != nil {
			return sum, err
		}
		sum.Objects++
		sum.Bytes += n
	}
	return sum, nil
}

func uploadFile(ctx context.Context, bkt *blob.Bucket, src, key string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()
	return writeObject(ctx, bkt, key, f)
}

// writeObject copies r to key. A failed copy cancels the writer's context before
// Close, so the bucket discards the object instead of committing a partial one.
func writeObject(ctx context.Context, bkt *blob.Bucket, key string, r io.Reader) (int64, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer, err := bkt.NewWriter(wctx, key, nil)
	if err != nil {
		return 0, fmt.Errorf("create writer for %s: %w", key, err)
	}
	written, err := io.Copy(writer, r)
	if err != nil {
		cancel()
		_ = writer.Close()
		return 0, fmt.Errorf("write %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("close writer for %s: %w", key, err)
	}
	return written, nil
}
