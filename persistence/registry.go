package persistence

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/leadrec/blobstore"
	"github.com/hupe1980/leadrec/tfidf"
)

const (
	// CurrentName holds the name of the published artifact.
	CurrentName = "CURRENT"
	// ModelPrefix is where artifacts live inside a store.
	ModelPrefix = "models/"
	// Extension is the artifact file extension.
	Extension = ".lrm"
)

var (
	// ErrNoCurrentModel is returned when nothing has been published yet.
	ErrNoCurrentModel = errors.New("no model has been published")
	// ErrModelInUse is returned when deleting the published model.
	ErrModelInUse = errors.New("model is the current model")
)

// ModelName returns the blob name of the artifact for id.
func ModelName(id uuid.UUID) string {
	return ModelPrefix + id.String() + Extension
}

// Registry publishes artifacts to a BlobStore and tracks the current one.
//
// Publishing writes the artifact under its own name first and swaps the
// CURRENT pointer last, so readers never observe a partial model.
type Registry struct {
	store blobstore.BlobStore
	opts  []Option
	o     options
}

// NewRegistry creates a Registry. opts apply to every Save and Load.
func NewRegistry(store blobstore.BlobStore, opts ...Option) *Registry {
	return &Registry{store: store, opts: opts, o: applyOptions(opts)}
}

// Store returns the underlying BlobStore.
func (r *Registry) Store() blobstore.BlobStore { return r.store }

// Publish uploads m and makes it current. It returns the blob name.
func (r *Registry) Publish(ctx context.Context, m *tfidf.Model) (string, error) {
	name, err := r.Upload(ctx, m)
	if err != nil {
		return "", err
	}
	if err := r.store.Put(ctx, CurrentName, []byte(name)); err != nil {
		return "", fmt.Errorf("persistence: set current to %s: %w", name, err)
	}
	r.o.logger.InfoContext(ctx, "model published", "model_id", m.ID, "name", name)
	return name, nil
}

// Upload stores m without making it current.
func (r *Registry) Upload(ctx context.Context, m *tfidf.Model) (string, error) {
	if m == nil {
		return "", fmt.Errorf("persistence: nil model")
	}
	name := ModelName(m.ID)
	w, err := r.store.Create(ctx, name)
	if err != nil {
		return "", err
	}
	// Save applies the rate limit itself.
	if _, err := Save(ctx, w, m, r.opts...); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("persistence: upload %s: %w", name, err)
	}
	if err := w.Sync(); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("persistence: upload %s: %w", name, err)
	}
	return name, nil
}

// Current returns the blob name of the current model.
func (r *Registry) Current(ctx context.Context) (string, error) {
	b, err := r.store.Open(ctx, CurrentName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNoCurrentModel
		}
		return "", err
	}
	defer func() { _ = b.Close() }()

	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", ErrNoCurrentModel
	}
	return name, nil
}

// LoadCurrent loads the current model.
func (r *Registry) LoadCurrent(ctx context.Context) (*tfidf.Model, error) {
	name, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}
	return r.loadName(ctx, name)
}

// Load loads the model with the given id.
func (r *Registry) Load(ctx context.Context, id uuid.UUID) (*tfidf.Model, error) {
	return r.loadName(ctx, ModelName(id))
}

func (r *Registry) loadName(ctx context.Context, name string) (*tfidf.Model, error) {
	b, err := r.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", name, err)
	}
	defer func() { _ = b.Close() }()

	if mb, ok := b.(blobstore.Mappable); ok {
		data, err := mb.Bytes()
		if err != nil {
			return nil, err
		}
		if r.o.rc != nil {
			if err := r.o.rc.AcquireIO(ctx, len(data)); err != nil {
				return nil, err
			}
		}
		return LoadBytes(ctx, data, r.opts...)
	}

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return Load(ctx, rc, r.opts...)
}

// Entry describes one stored artifact.
type Entry struct {
	Name     string
	ID       uuid.UUID
	Size     int64
	Current  bool
	Manifest *Manifest
}

// List returns the stored artifacts in name order. Manifests are read
// only when withManifest is set, since that downloads every artifact.
func (r *Registry) List(ctx context.Context, withManifest bool) ([]Entry, error) {
	names, err := r.store.List(ctx, ModelPrefix)
	if err != nil {
		return nil, err
	}
	current, err := r.Current(ctx)
	if err != nil && !errors.Is(err, ErrNoCurrentModel) {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		id, ok := parseModelName(name)
		if !ok {
			continue
		}
		e := Entry{Name: name, ID: id, Current: name == current}
		b, err := r.store.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		e.Size = b.Size()
		if withManifest {
			data, err := blobstore.ReadAll(ctx, b)
			if err == nil {
				_, e.Manifest, err = ReadManifest(data)
			}
			if err != nil {
				_ = b.Close()
				return nil, fmt.Errorf("persistence: read %s: %w", name, err)
			}
		}
		_ = b.Close()
		entries = append(entries, e)
	}
	return entries, nil
}

// Delete removes the artifact for id. The current model cannot be deleted.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	name := ModelName(id)
	current, err := r.Current(ctx)
	if err != nil && !errors.Is(err, ErrNoCurrentModel) {
		return err
	}
	if name == current {
		return fmt.Errorf("%w: %s", ErrModelInUse, id)
	}
	return r.store.Delete(ctx, name)
}

func parseModelName(name string) (uuid.UUID, bool) {
	base := path.Base(name)
	if path.Dir(name)+"/" != ModelPrefix || !strings.HasSuffix(base, Extension) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSuffix(base, Extension))
	return id, err == nil
}
