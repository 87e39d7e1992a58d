package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectPath builds a collision-free storage key of the form
// {domain}/{id}/{timestamp}_{suffix}{ext}. The original filename only
// contributes its extension; the name itself is kept as row metadata.
func ObjectPath(domain, ownerID, originalName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(originalName))
	if ext == "" {
		ext = ".bin"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s/%s/%d_%s%s", domain, ownerID, now.UnixMilli(), suffix, ext)
}
