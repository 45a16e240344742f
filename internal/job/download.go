package job

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"audiocheck/internal/fileutil"
	"audiocheck/internal/logging"
	"audiocheck/internal/services"
)

// download fetches the source into a temporary file in the cache directory
// and makes it the analysis input.
func (j *Job) download(ctx context.Context, gen uint64) error {
	opts := j.manager.opts
	if err := fileutil.EnsureWritableDir(opts.CacheDir); err != nil {
		return services.Wrap(services.ErrConfiguration, "download", "prepare cache", opts.CacheDir, err)
	}
	if err := fileutil.EnsureFree(opts.CacheDir, opts.MinFreeBytes); err != nil {
		return services.Wrap(services.ErrTransient, "download", "preflight", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.source, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "download", "build request", j.source, err)
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return transportError("GET", j.source, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "download", "GET", resp.Status, nil)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrTransient, "download", "GET", "unexpected status "+resp.Status, nil)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = -1
	} else if err := fileutil.EnsureFree(opts.CacheDir, uint64(total)+opts.MinFreeBytes); err != nil {
		return services.Wrap(services.ErrTransient, "download", "preflight", "", err)
	}

	file, err := os.CreateTemp(opts.CacheDir, "download-*"+filepath.Ext(j.name))
	if err != nil {
		return services.Wrap(services.ErrTransient, "download", "create cache file", opts.CacheDir, err)
	}
	path := file.Name()
	if !j.trackCache(gen, path) {
		_ = file.Close()
		_ = os.Remove(path)
		return context.Canceled
	}

	written, err := j.copyChunks(ctx, gen, file, resp.Body, total)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = services.Wrap(services.ErrTransient, "download", "close cache file", path, closeErr)
	}
	if err == nil && total > 0 && written != total {
		err = services.Wrap(services.ErrTransient, "download", "short read", fmt.Sprintf("got %d of %d bytes", written, total), nil)
	}
	if err != nil {
		j.dropCache(path)
		return err
	}
	if !j.adoptDownload(gen, path) {
		j.dropCache(path)
		return context.Canceled
	}
	j.logger.Debug("download complete", logging.String("path", path), logging.Int64("bytes", written))
	return nil
}

// copyChunks copies body to dst one chunk at a time, polling ctx and the
// bandwidth limiter between chunks.
func (j *Job) copyChunks(ctx context.Context, gen uint64, dst io.Writer, body io.Reader, total int64) (int64, error) {
	limiter := j.manager.limiter()
	buf := make([]byte, j.manager.opts.ChunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := body.Read(buf)
		if n > 0 {
			if limiter != nil {
				if err := limiter.WaitN(ctx, n); err != nil {
					if ctx.Err() != nil {
						return written, ctx.Err()
					}
					return written, services.Wrap(services.ErrTransient, "download", "rate limit", "", err)
				}
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, services.Wrap(services.ErrTransient, "download", "write", "", err)
			}
			written += int64(n)
			j.setProgress(gen, written, total)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			return written, transportError("read", j.source, readErr)
		}
	}
}

func transportError(op, source string, err error) error {
	if os.IsTimeout(err) {
		return services.Wrap(services.ErrTimeout, "download", op, source, err)
	}
	return services.Wrap(services.ErrTransient, "download", op, source, err)
}
