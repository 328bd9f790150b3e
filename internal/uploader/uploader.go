// Package uploader is the client-side batch pipeline: it validates operator
// supplied files, routes them through the interactive crop editor when the
// upload target asks for one, transcodes the survivors and keeps the
// per-surface list of pending and persisted images.
package uploader

import (
	"context"
	"fmt"
	"sync"

	"catalog-media/internal/crop"
	"catalog-media/internal/domain"
	"catalog-media/internal/transcode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

// SourceFile is an operator-supplied image. It exists only for the duration
// of client-side processing.
type SourceFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Item is one entry of the display list. New items carry the transcoded
// buffer still awaiting upload; existing items mirror assets already
// persisted on the server and are removable only through the remote
// callback.
type Item struct {
	ID       string
	RecordID string
	Name     string
	Size     int64
	Data     []byte
	URL      string
	Existing bool
}

// Presenter drives the interactive crop dialog. The real implementation
// renders the session and forwards pointer gestures; it must eventually
// call Confirm or Cancel on the session.
type Presenter interface {
	Present(ctx context.Context, s *crop.Session)
}

// RemoveRemoteFunc deletes a persisted asset on the server. It runs before
// any local state changes; removal is not optimistic.
type RemoveRemoteFunc func(ctx context.Context, recordID string) error

type Config struct {
	MaxFiles    int
	MaxFileSize int64
	// AllowedTypes restricts accepted media types; defaults to the common
	// raster photo formats.
	AllowedTypes map[string]bool
	// Crop routes every accepted file through the interactive editor.
	// Without it files are fit-resized to the target bounds directly.
	Crop   bool
	Target domain.TargetSize

	OnFilesChange func(items []Item)
	OnError       func(msg string)
}

func (c *Config) applyDefaults() {
	if c.MaxFiles <= 0 {
		c.MaxFiles = 10
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = domain.DefaultMaxFileSize
	}
	if c.AllowedTypes == nil {
		c.AllowedTypes = domain.AllowedMIMETypes
	}
	if c.Target.Width <= 0 || c.Target.Height <= 0 {
		c.Target = domain.TargetFor(domain.KindProduct)
	}
}

type job struct {
	ctx  context.Context
	file SourceFile
}

// Uploader owns the image list of one upload surface. All mutations are
// observable only through the configured callbacks. Accepted files are
// processed strictly sequentially by a single in-flight queue, so a crop
// dialog for file n+1 never opens before file n's is dismissed.
type Uploader struct {
	cfg          Config
	presenter    Presenter
	removeRemote RemoveRemoteFunc
	logger       *zlog.Zerolog

	mu     sync.Mutex
	items  []Item
	errs   []string
	closed bool

	jobs chan job
	wg   sync.WaitGroup
}

func New(cfg Config, presenter Presenter, removeRemote RemoveRemoteFunc, logger *zlog.Zerolog) *Uploader {
	cfg.applyDefaults()

	u := &Uploader{
		cfg:          cfg,
		presenter:    presenter,
		removeRemote: removeRemote,
		logger:       logger,
		jobs:         make(chan job, 64),
	}
	go u.run()
	return u
}

// AddFiles validates and enqueues a batch. A batch larger than MaxFiles is
// rejected whole with ErrBatchTooLarge before any processing; the cap is
// checked per call, not against the running total across calls. Individual
// type or size failures skip only the offending file.
func (u *Uploader) AddFiles(ctx context.Context, files []SourceFile) error {
	if len(files) > u.cfg.MaxFiles {
		err := fmt.Errorf("%w: got %d, limit %d", ErrBatchTooLarge, len(files), u.cfg.MaxFiles)
		u.notifyError(err.Error())
		return err
	}

	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return ErrClosed
	}
	u.mu.Unlock()

	for _, f := range files {
		if err := u.validate(f); err != nil {
			u.recordError(fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		u.wg.Add(1)
		u.jobs <- job{ctx: ctx, file: f}
	}
	return nil
}

func (u *Uploader) validate(f SourceFile) error {
	if int64(len(f.Data)) > u.cfg.MaxFileSize {
		return ErrFileTooLarge
	}
	mt := mimetype.Detect(f.Data)
	if !u.cfg.AllowedTypes[mt.String()] {
		return fmt.Errorf("%w: %s", ErrInvalidType, mt.String())
	}
	return nil
}

func (u *Uploader) run() {
	for j := range u.jobs {
		u.process(j.ctx, j.file)
		u.wg.Done()
	}
}

func (u *Uploader) process(ctx context.Context, f SourceFile) {
	if u.cfg.Crop {
		u.processCropped(ctx, f)
		return
	}
	u.processDirect(f)
}

func (u *Uploader) processCropped(ctx context.Context, f SourceFile) {
	s, err := crop.NewSession(f.Name, f.Data, crop.Config{
		TargetWidth:  u.cfg.Target.Width,
		TargetHeight: u.cfg.Target.Height,
	})
	if err != nil {
		u.recordError(fmt.Sprintf("%s: %v", f.Name, err))
		return
	}

	go u.presenter.Present(ctx, s)

	out, err := s.Wait(ctx)
	if err != nil {
		u.recordError(fmt.Sprintf("%s: %v", f.Name, err))
		return
	}
	if out == nil {
		// Operator cancelled; the file is dropped silently.
		return
	}

	u.append(Item{
		ID:   uuid.New().String(),
		Name: f.Name,
		Size: out.Size,
		Data: out.Data,
	})
}

func (u *Uploader) processDirect(f SourceFile) {
	img, err := transcode.Decode(f.Data)
	if err != nil {
		u.recordError(fmt.Sprintf("%s: %v", f.Name, err))
		return
	}

	fitted := transcode.Fit(img, u.cfg.Target.Width, u.cfg.Target.Height)
	data, err := transcode.EncodeJPEG(fitted)
	if err != nil {
		u.recordError(fmt.Sprintf("%s: %v", f.Name, err))
		return
	}

	u.append(Item{
		ID:   uuid.New().String(),
		Name: f.Name,
		Size: int64(len(data)),
		Data: data,
	})
}

// LoadExisting seeds the display list with assets already persisted on the
// server, typically fetched when the admin screen opens.
func (u *Uploader) LoadExisting(assets []Item) {
	u.mu.Lock()
	for _, a := range assets {
		a.Existing = true
		a.Data = nil
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		u.items = append(u.items, a)
	}
	list := u.snapshotLocked()
	u.mu.Unlock()

	u.notifyChange(list)
}

// Remove deletes an entry. Existing entries call the remote removal first;
// when that fails the list is left unchanged and a notification is raised.
func (u *Uploader) Remove(ctx context.Context, id string) error {
	u.mu.Lock()
	idx := -1
	for i, it := range u.items {
		if it.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		u.mu.Unlock()
		return ErrNotFound
	}
	it := u.items[idx]
	u.mu.Unlock()

	if it.Existing {
		if err := u.removeRemote(ctx, it.RecordID); err != nil {
			u.recordError(fmt.Sprintf("%s: %v", it.Name, ErrRemovalFailed))
			return fmt.Errorf("%w: %v", ErrRemovalFailed, err)
		}
	}

	u.mu.Lock()
	for i, cur := range u.items {
		if cur.ID == id {
			u.items = append(u.items[:i], u.items[i+1:]...)
			break
		}
	}
	list := u.snapshotLocked()
	u.mu.Unlock()

	u.notifyChange(list)
	return nil
}

// Files returns the new entries still awaiting upload.
func (u *Uploader) Files() []Item {
	u.mu.Lock()
	defer u.mu.Unlock()

	var out []Item
	for _, it := range u.items {
		if !it.Existing {
			out = append(out, it)
		}
	}
	return out
}

// AllFiles returns the full display list, existing entries included.
func (u *Uploader) AllFiles() []Item {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snapshotLocked()
}

// Errors returns the accumulated per-file error list.
func (u *Uploader) Errors() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, len(u.errs))
	copy(out, u.errs)
	return out
}

// Wait blocks until every enqueued file has finished processing.
func (u *Uploader) Wait() {
	u.wg.Wait()
}

// Close stops the processing queue. Pending jobs are drained first.
func (u *Uploader) Close() {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	u.mu.Unlock()

	u.wg.Wait()
	close(u.jobs)
}

func (u *Uploader) append(it Item) {
	u.mu.Lock()
	u.items = append(u.items, it)
	list := u.snapshotLocked()
	u.mu.Unlock()

	u.notifyChange(list)
}

func (u *Uploader) snapshotLocked() []Item {
	out := make([]Item, len(u.items))
	copy(out, u.items)
	return out
}

func (u *Uploader) recordError(msg string) {
	u.mu.Lock()
	u.errs = append(u.errs, msg)
	u.mu.Unlock()

	if u.logger != nil {
		u.logger.Warn().Str("reason", msg).Msg("File skipped")
	}
	u.notifyError(msg)
}

func (u *Uploader) notifyError(msg string) {
	if u.cfg.OnError != nil {
		u.cfg.OnError(msg)
	}
}

func (u *Uploader) notifyChange(list []Item) {
	if u.cfg.OnFilesChange != nil {
		u.cfg.OnFilesChange(list)
	}
}
