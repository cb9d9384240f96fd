package certificate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-certs/core"
)

var NowFunc = time.Now // mockable

// Recorder observes pipeline outcomes, eg. for metrics.
type Recorder interface {
	Generated()
	Uploaded()
	UploadFailed()
	Exported()
	Pruned(n int)
}

type noopRecorder struct{}

func (noopRecorder) Generated()    {}
func (noopRecorder) Uploaded()     {}
func (noopRecorder) UploadFailed() {}
func (noopRecorder) Exported()     {}
func (noopRecorder) Pruned(int)    {}

// Service is the certificate artifact pipeline: generate -> persist locally -> upload | export.
// Uploads are not guarded against concurrent calls for the same ID:
// both may be sent, or the later one fails with ErrNotFound.
type Service struct {
	store    Store
	renderer Renderer
	uploader Uploader
	recorder Recorder
	logger   core.Logger
}

func NewService(store Store, renderer Renderer, uploader Uploader, recorder Recorder, logger core.Logger) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		store:    store,
		renderer: renderer,
		uploader: uploader,
		recorder: recorder,
		logger:   logger,
	}
}

// Generate draws the certificate, stores it with its fields and returns the image data URL.
// Fields are rendered & stored verbatim; only a reserved ID and storage failures are returned.
func (svc *Service) Generate(ctx context.Context, f Fields) (string, error) {
	if err := ValidateID(f.CertificateID); err != nil {
		return "", err
	}

	png, err := svc.renderer.Render(ctx, f)
	if err != nil {
		return "", errors.Wrap(err, "rendering certificate")
	}
	image := EncodeDataURL(png)

	data, err := json.Marshal(f)
	if err != nil {
		return "", storageErr("serializing fields", err)
	}
	err = svc.store.Set(ctx,
		Item{Key: ImageKey(f.CertificateID), Value: image},
		Item{Key: DataKey(f.CertificateID), Value: string(data)},
	)
	if err != nil {
		return "", storageErr("saving certificate", err)
	}

	svc.recorder.Generated()
	svc.logger.Debug(fmt.Sprintf("certificate %q generated", f.CertificateID))
	return image, nil
}

func (svc *Service) getItem(ctx context.Context, key string) (Item, bool, error) {
	item, err := svc.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return Item{}, false, nil
		}
		return Item{}, false, storageErr("reading "+key, err)
	}
	return item, true, nil
}

// Fetch returns the stored certificate. ok is false unless both entries exist and parse.
func (svc *Service) Fetch(ctx context.Context, id string) (rec Record, ok bool, err error) {
	img, found, err := svc.getItem(ctx, ImageKey(id))
	if err != nil || !found || img.Value == "" {
		return Record{}, false, err
	}
	data, found, err := svc.getItem(ctx, DataKey(id))
	if err != nil || !found {
		return Record{}, false, err
	}

	var f Fields
	if err = json.Unmarshal([]byte(data.Value), &f); err != nil {
		svc.logger.Debug(fmt.Sprintf("skipping certificate %q: malformed fields: %v", id, err))
		return Record{}, false, nil
	}
	return Record{
		ID:       id,
		Fields:   f,
		Image:    img.Value,
		StoredAt: img.StoredAt,
	}, true, nil
}

// ListAll resolves every stored certificate, in store enumeration order.
// Partial or malformed entries are skipped.
func (svc *Service) ListAll(ctx context.Context) ([]Record, error) {
	keys, err := svc.store.Keys(ctx)
	if err != nil {
		return nil, storageErr("listing keys", err)
	}
	records := make([]Record, 0)
	for _, key := range keys {
		id, ok := idFromImageKey(key)
		if !ok {
			continue
		}
		rec, ok, err := svc.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Image returns the stored PNG bytes of a certificate.
func (svc *Service) Image(ctx context.Context, id string) ([]byte, error) {
	img, found, err := svc.getItem(ctx, ImageKey(id))
	if err != nil {
		return nil, err
	}
	if !found || img.Value == "" {
		return nil, ErrNotFound
	}
	png, err := DecodeDataURL(img.Value)
	if err != nil {
		return nil, storageErr("decoding image", err)
	}
	return png, nil
}

// Upload sends a stored certificate to the backend then removes it from local storage.
// On failure local storage is left untouched.
func (svc *Service) Upload(ctx context.Context, id string) (UploadResult, error) {
	rec, ok, err := svc.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	png, err := DecodeDataURL(rec.Image)
	if err != nil {
		return nil, storageErr("decoding image", err)
	}

	result, err := svc.uploader.Upload(ctx, id, png)
	if err != nil {
		svc.recorder.UploadFailed()
		return nil, err
	}
	svc.recorder.Uploaded()

	if err = svc.store.Remove(ctx, ImageKey(id), DataKey(id)); err != nil {
		svc.logger.Error(fmt.Sprintf("certificate %q uploaded but not cleaned up: %v", id, err), err)
		return nil, storageErr("removing uploaded certificate", err)
	}
	svc.logger.Info(fmt.Sprintf("certificate %q uploaded", id))
	return result, nil
}

// UploadAll uploads every stored certificate, at most concurrency at a time.
// A failed upload does not stop the others; outcomes are in listing order.
func (svc *Service) UploadAll(ctx context.Context, concurrency int) ([]UploadOutcome, error) {
	records, err := svc.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	// each upload owns its slot in outcomes
	outcomes := make([]UploadOutcome, len(records))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, rec := range records {
		i, id := i, rec.ID
		g.Go(func() error {
			result, err := svc.Upload(ctx, id)
			outcomes[i] = UploadOutcome{ID: id, Result: result}
			if err != nil {
				outcomes[i].Error = err.Error()
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// ExportDocument builds the PDF of a stored certificate and hands it to sink.
// sink is not called when the certificate is missing.
func (svc *Service) ExportDocument(ctx context.Context, id string, sink DocumentSink) error {
	png, err := svc.Image(ctx, id)
	if err != nil {
		return err
	}
	doc, err := BuildDocument(png, "Certificate "+id)
	if err != nil {
		return errors.Wrap(err, "building certificate document")
	}
	if err = sink.SaveDocument(DocumentName(id), doc); err != nil {
		return errors.Wrap(err, "saving certificate document")
	}
	svc.recorder.Exported()
	return nil
}

// Prune removes certificates stored for longer than olderThan, and orphaned halves of the same age.
// It returns the number of keys removed.
func (svc *Service) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	keys, err := svc.store.Keys(ctx)
	if err != nil {
		return 0, storageErr("listing keys", err)
	}
	cutoff := NowFunc().Add(-olderThan)

	var removed int
	seen := make(map[string]bool)
	for _, key := range keys {
		id, ok := svc.certificateID(key)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		stale, err := svc.isStale(ctx, id, cutoff)
		if err != nil {
			return removed, err
		}
		if len(stale) == 0 {
			continue
		}
		if err = svc.store.Remove(ctx, stale...); err != nil {
			return removed, storageErr("pruning certificate", err)
		}
		removed += len(stale)
	}

	svc.recorder.Pruned(removed)
	if removed > 0 {
		svc.logger.Info(fmt.Sprintf("pruned %d local storage entries", removed))
	}
	return removed, nil
}

// certificateID extracts the certificate ID of an image or data key.
func (svc *Service) certificateID(key string) (string, bool) {
	if id, ok := idFromImageKey(key); ok {
		return id, true
	}
	return idFromDataKey(key)
}

// isStale returns the keys of id to remove: both when the certificate is older than cutoff,
// or the lone half of a partial record older than cutoff.
func (svc *Service) isStale(ctx context.Context, id string, cutoff time.Time) ([]string, error) {
	img, hasImg, err := svc.getItem(ctx, ImageKey(id))
	if err != nil {
		return nil, err
	}
	data, hasData, err := svc.getItem(ctx, DataKey(id))
	if err != nil {
		return nil, err
	}

	switch {
	case hasImg && hasData:
		if img.StoredAt.Before(cutoff) {
			return []string{ImageKey(id), DataKey(id)}, nil
		}
	case hasImg:
		if img.StoredAt.Before(cutoff) {
			return []string{ImageKey(id)}, nil
		}
	case hasData:
		if data.StoredAt.Before(cutoff) {
			return []string{DataKey(id)}, nil
		}
	}
	return nil, nil
}
