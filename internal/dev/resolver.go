package dev

import (
	"log/slog"
	"os"

	"github.com/vango-dev/pageroutes/internal/config"
	"github.com/vango-dev/pageroutes/pkg/bundle"
	"github.com/vango-dev/pageroutes/pkg/deferred"
	"github.com/vango-dev/pageroutes/pkg/manifest"
)

// NewResolver registers the file scheme against the bundle directory and,
// when a bucket is configured, the s3 scheme against client. A nil client
// is built from the bundle region and endpoint.
func NewResolver(cfg *config.Config, client bundle.ObjectAPI, logger *slog.Logger) *manifest.Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	r := manifest.NewResolver()
	dir := bundle.NewDirSource(os.DirFS(cfg.BundleDir()))
	r.Register("file", factory(dir.Loader))

	if cfg.Bundle.Bucket != "" {
		if client == nil {
			client = bundle.NewS3Client(cfg.Bundle.Region, cfg.Bundle.Endpoint)
		}
		src := bundle.NewS3Source(client, cfg.Bundle.Bucket, cfg.Bundle.Prefix).
			WithLogger(logger.With("bucket", cfg.Bundle.Bucket))
		r.Register("s3", factory(src.Loader))
	}
	return r
}

func factory(loader func(string) deferred.Loader) manifest.Factory {
	return func(target string) (deferred.Loader, error) {
		return loader(target), nil
	}
}
