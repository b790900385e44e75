// Package filex reads local files destined for object storage.
package filex

import (
	"fmt"
	"net/http"
	"os"
)

// MaxUploadSize caps files read by ReadUpload.
const MaxUploadSize = 20 << 20

// ReadUpload reads a regular file no larger than limit bytes and sniffs its
// content type. A limit <= 0 means MaxUploadSize.
func ReadUpload(path string, limit int64) ([]byte, string, error) {
	if limit <= 0 {
		limit = MaxUploadSize
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, "", fmt.Errorf("%s is not a regular file", path)
	}
	if fi.Size() > limit {
		return nil, "", fmt.Errorf("%s is %d bytes, limit is %d", path, fi.Size(), limit)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, http.DetectContentType(data), nil
}
