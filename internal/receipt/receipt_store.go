package receipt

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	receipterrors "go-salary/internal/receipt/errors"

	"github.com/gosimple/slug"
)

const KeyPrefix = "receipts/"

type Store interface {
	// Put stores the object under key and returns the reference to persist.
	Put(ctx context.Context, key string, r io.Reader) (string, error)
	// URL returns a retrievable link for ref that stops working after expiry.
	URL(ref string, expiry time.Duration) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// ObjectKey builds receipts/<employee_id>/<unix_millis>_<slug>.<ext>; the
// timestamp keeps repeated uploads of the same file name apart.
func ObjectKey(employeeID, filename string, at time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if base == "" {
		base = "receipt"
	}
	return fmt.Sprintf("%s%s/%d_%s%s", KeyPrefix, employeeID, at.UnixMilli(), base, ext)
}

// ValidateRef rejects references that could escape the receipt namespace.
func ValidateRef(ref string) error {
	if !strings.HasPrefix(ref, KeyPrefix) {
		return receipterrors.ErrInvalidReceiptRef
	}
	if path.Clean(ref) != ref || strings.Contains(ref, "..") || strings.Contains(ref, "\\") {
		return receipterrors.ErrInvalidReceiptRef
	}
	return nil
}
