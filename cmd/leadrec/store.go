package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hupe1980/leadrec"
	"github.com/hupe1980/leadrec/blobstore"
	"github.com/hupe1980/leadrec/blobstore/minio"
	"github.com/hupe1980/leadrec/blobstore/s3"
	"github.com/hupe1980/leadrec/internal/config"
	"github.com/hupe1980/leadrec/persistence"
)

var errNoStore = errors.New("no model store configured (use --store or store.url)")

// openStore resolves a store URL. A URL without a scheme is a local
// directory.
func openStore(ctx context.Context, cfg config.StoreConfig) (blobstore.BlobStore, error) {
	if cfg.URL == "" {
		return nil, errNoStore
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("store url: %w", err)
	}

	switch u.Scheme {
	case "", "file":
		dir := u.Path
		if u.Scheme == "" {
			dir = cfg.URL
		} else if u.Host != "" {
			// file://relative/dir
			dir = filepath.Join(u.Host, u.Path)
		}
		return blobstore.NewLocalStore(dir), nil

	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("store url %q: missing bucket", cfg.URL)
		}
		opts := []s3.Option{s3.WithPrefix(strings.Trim(u.Path, "/"))}
		if cfg.Region != "" {
			opts = append(opts, s3.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.Endpoint))
		}
		store, err := s3.New(ctx, u.Host, opts...)
		if err != nil {
			return nil, err
		}
		if cfg.DDBTable == "" {
			return store, nil
		}
		ddb, err := s3.NewDDBClient(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return s3.NewDDBCommitStore(store, ddb, cfg.DDBTable, cfg.URL), nil

	case "minio":
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("store url %q: want minio://host/bucket[/prefix]", cfg.URL)
		}
		return minio.Dial(ctx, minio.Config{
			Endpoint:  u.Host,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Secure:    !cfg.Insecure,
			Region:    cfg.Region,
		}, bucket, prefix)

	default:
		return nil, fmt.Errorf("store url %q: unsupported scheme %q", cfg.URL, u.Scheme)
	}
}

func (a *app) modelRegistry(ctx context.Context) (*persistence.Registry, error) {
	store, err := openStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	return leadrec.NewRegistry(store, opts...), nil
}

// loadModel loads modelPath, or the current model of the store when
// modelPath is empty.
func (a *app) loadModel(ctx context.Context, modelPath string) (*leadrec.Recommender, error) {
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	if modelPath != "" {
		return leadrec.LoadFile(ctx, modelPath, opts...)
	}
	if a.cfg.Store.URL == "" {
		return nil, errors.New("no model given (use --model or --store)")
	}
	reg, err := a.modelRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return leadrec.LoadCurrent(ctx, reg, opts...)
}
