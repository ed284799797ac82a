package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"storesync/internal/logging"
)

// Sink stores one asset. *remote.Client satisfies it.
type Sink interface {
	UploadAsset(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
}

// ProgressFunc observes transferred bytes. It runs on the upload goroutine.
type ProgressFunc func(sent, total int64)

// Option customizes a single upload.
type Option func(*startOptions)

type startOptions struct {
	contentType string
	onProgress  ProgressFunc
}

// WithContentType overrides the detected content type.
func WithContentType(contentType string) Option {
	return func(o *startOptions) { o.contentType = contentType }
}

// WithProgress registers fn to observe progress.
func WithProgress(fn ProgressFunc) Option {
	return func(o *startOptions) { o.onProgress = fn }
}

// Uploader starts uploads against a Sink.
type Uploader struct {
	sink   Sink
	logger *slog.Logger
}

// NewUploader returns an uploader writing to sink.
func NewUploader(sink Sink, logger *slog.Logger) *Uploader {
	return &Uploader{sink: sink, logger: logging.NewComponentLogger(logger, "upload")}
}

// Start begins uploading body under name and returns immediately. size is the
// body length, or -1 when unknown. name is passed through AssetName.
func (u *Uploader) Start(ctx context.Context, name string, body io.Reader, size int64, opts ...Option) *Future {
	name = AssetName(name)
	var o startOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.contentType == "" {
		o.contentType = contentTypeFor(name)
	}

	runCtx, cancel := context.WithCancel(ctx)
	f := newFuture(cancel, size)
	go u.run(runCtx, f, name, body, o)
	return f
}

// StartFile uploads the file at path under its base name. The file is closed
// when the future resolves.
func (u *Uploader) StartFile(ctx context.Context, path string, opts ...Option) (*Future, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("upload %s: is a directory", path)
	}
	f := u.Start(ctx, filepath.Base(path), file, info.Size(), opts...)
	go func() {
		<-f.Done()
		_ = file.Close()
	}()
	return f, nil
}

func (u *Uploader) run(ctx context.Context, f *Future, name string, body io.Reader, o startOptions) {
	started := time.Now()
	reader := &progressReader{ctx: ctx, r: body, f: f, onProgress: o.onProgress}

	url, err := u.sink.UploadAsset(ctx, name, o.contentType, reader, f.total)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		u.logger.Warn("upload failed",
			logging.String("name", name),
			logging.Error(err),
			logging.String(logging.FieldEventType, "upload_failed"),
		)
		f.resolve(Result{}, err)
		return
	}

	res := Result{Name: name, URL: url, Bytes: f.sent.Load(), Elapsed: time.Since(started)}
	u.logger.Info("upload completed",
		logging.String("name", name),
		logging.String("url", url),
		logging.Int64("bytes", res.Bytes),
		logging.Duration("elapsed", res.Elapsed),
	)
	f.resolve(res, nil)
}

func contentTypeFor(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// progressReader counts bytes and stops the transfer once ctx ends.
type progressReader struct {
	ctx        context.Context
	r          io.Reader
	f          *Future
	onProgress ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(buf)
	if n > 0 {
		sent := p.f.sent.Add(int64(n))
		if p.onProgress != nil {
			p.onProgress(sent, p.f.total)
		}
	}
	return n, err
}
