package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	receipterrors "go-salary/internal/receipt/errors"

	"go.uber.org/zap"
)

// LocalStore keeps receipts on disk under dir and serves them through the
// public download route with signed tokens.
type LocalStore struct {
	dir           string
	publicBaseURL string
	defaultExpiry time.Duration
	signer        *Signer
	logger        *zap.Logger
}

func NewLocalStore(dir, publicBaseURL string, defaultExpiry time.Duration, signer *Signer, logger ...*zap.Logger) *LocalStore {
	l := zap.L().Named("receipt.store")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("receipt.store")
	}
	return &LocalStore{
		dir:           dir,
		publicBaseURL: publicBaseURL,
		defaultExpiry: defaultExpiry,
		signer:        signer,
		logger:        l,
	}
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := ValidateRef(key); err != nil {
		return "", err
	}
	fullPath := s.fullPath(key)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}

	dst, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, readerWithContext(ctx, r)); err != nil {
		dst.Close()
		_ = os.Remove(fullPath)
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(fullPath)
		return "", err
	}

	s.logger.Debug("receipt stored", zap.String("ref", key))
	return key, nil
}

func (s *LocalStore) URL(ref string, expiry time.Duration) (string, error) {
	if err := ValidateRef(ref); err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = s.defaultExpiry
	}

	token, err := s.signer.Sign(ref, expiry)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/public/%s?token=%s", s.publicBaseURL, ref, url.QueryEscape(token)), nil
}

func (s *LocalStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if err := ValidateRef(ref); err != nil {
		return nil, err
	}
	f, err := os.Open(s.fullPath(ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, receipterrors.ErrReceiptNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if err := ValidateRef(ref); err != nil {
		return err
	}
	if err := os.Remove(s.fullPath(ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) fullPath(ref string) string {
	return filepath.Join(s.dir, filepath.FromSlash(ref))
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
