package picker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"

	"imagepick/internal/compress"
	"imagepick/internal/domain"
	"imagepick/internal/eventbus"
	"imagepick/internal/logging"
)

// ImageIndex lists the images available for picking
type ImageIndex interface {
	ListImages(ctx context.Context, predicate *domain.Predicate) ([]domain.Image, error)
}

// ScopedIndex is an ImageIndex that applies the configuration itself. Its
// scope is refreshed from the current configuration before every fetch.
type ScopedIndex interface {
	ImageIndex
	Scope(cfg domain.Configuration)
}

// Compressor produces smaller replacements for picked images
type Compressor interface {
	// Compress returns the path of a compressed copy, or an error when the
	// original should be kept
	Compress(ctx context.Context, ref, name string, p compress.Params) (string, error)
	// Resolve turns a compressed file path into a storage reference
	Resolve(path string) (string, error)
}

// FilterStrategy chooses the predicate sent with each fetch
type FilterStrategy interface {
	Predicate(cfg domain.Configuration) *domain.Predicate
}

// Option customises a Coordinator
type Option func(*Coordinator)

// WithBackground replaces the default worker pool. The caller keeps ownership.
func WithBackground(b Background) Option {
	return func(c *Coordinator) {
		c.background = b
	}
}

// Coordinator owns the picker state: configuration, the fetched image set,
// derived folders and the selection. Results are published on its topics.
type Coordinator struct {
	// Result reports Loading/Success/Failure of the last fetch (replays latest)
	Result *eventbus.Topic[domain.Result[[]domain.Image]]
	// FolderSelected fires when a folder is opened (no replay)
	FolderSelected *eventbus.Topic[domain.FolderSelectedEvent]
	// Folders carries the derived folder list (replays latest)
	Folders *eventbus.Topic[[]domain.Folder]
	// Images carries the image list for the current folder, tagged with its
	// bucket (replays latest)
	Images *eventbus.Topic[domain.ImagesFilteredEvent]
	// Completed fires when the user finishes selecting (no replay)
	Completed *eventbus.Topic[domain.SelectionCompletedEvent]
	// SelectionChanged fires after every toggle and fetch (no replay)
	SelectionChanged *eventbus.Topic[domain.SelectionChangedEvent]
	// Interaction brackets compression with disabled/enabled (no replay)
	Interaction *eventbus.Topic[domain.InteractionChangedEvent]
	// Warnings reports images kept uncompressed (no replay)
	Warnings *eventbus.Topic[domain.CompressionWarningEvent]

	cfgMu sync.RWMutex
	cfg   domain.Configuration

	index      ImageIndex
	compressor Compressor
	strategy   FilterStrategy

	queue      *TaskQueue
	background Background
	ownedPool  *PoolExecutor
	selection  selectionSet
	closeOnce  sync.Once
}

// NewCoordinator creates a coordinator. The filter strategy should be chosen
// once from the index capabilities.
func NewCoordinator(cfg domain.Configuration, index ImageIndex, compressor Compressor, strategy FilterStrategy, opts ...Option) *Coordinator {
	c := &Coordinator{
		Result:           eventbus.NewTopic[domain.Result[[]domain.Image]]("result", eventbus.State),
		FolderSelected:   eventbus.NewTopic[domain.FolderSelectedEvent]("folder-selected", eventbus.Signal),
		Folders:          eventbus.NewTopic[[]domain.Folder]("folders", eventbus.State),
		Images:           eventbus.NewTopic[domain.ImagesFilteredEvent]("images", eventbus.State),
		Completed:        eventbus.NewTopic[domain.SelectionCompletedEvent]("completed", eventbus.Signal),
		SelectionChanged: eventbus.NewTopic[domain.SelectionChangedEvent]("selection-changed", eventbus.Signal),
		Interaction:      eventbus.NewTopic[domain.InteractionChangedEvent]("interaction", eventbus.Signal),
		Warnings:         eventbus.NewTopic[domain.CompressionWarningEvent]("compression-warnings", eventbus.Signal),
		cfg:              cfg,
		index:            index,
		compressor:       compressor,
		strategy:         strategy,
		queue:            NewTaskQueue(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.background == nil {
		c.ownedPool = NewPoolExecutor(context.Background(), runtime.GOMAXPROCS(0))
		c.background = c.ownedPool
	}
	return c
}

// Config returns the current configuration
func (c *Coordinator) Config() domain.Configuration {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.cfg
}

// UpdateConfig replaces the configuration as a whole
func (c *Coordinator) UpdateConfig(cfg domain.Configuration) {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	c.cfg = cfg
}

// FetchImages publishes Loading, queries the index in the background and
// publishes the outcome. The selection is cleared when the query completes.
func (c *Coordinator) FetchImages(ctx context.Context) {
	c.Result.Publish(domain.Loading[[]domain.Image]())

	c.queue.Go("fetch", func() {
		cfg := c.Config()
		predicate := c.strategy.Predicate(cfg)

		var images []domain.Image
		err := c.background.Run(func() error {
			if scoped, ok := c.index.(ScopedIndex); ok {
				scoped.Scope(cfg)
			}
			var err error
			images, err = c.index.ListImages(ctx, predicate)
			return err
		})

		c.selection.clear(c.publishCount)

		if err != nil {
			if cfg.FetchFailure == domain.FailureSwallow {
				logging.Warn("fetch failed, publishing empty result: %v", err)
				c.Result.Publish(domain.Success[[]domain.Image](nil))
				return
			}
			logging.Error("fetch failed: %v", err)
			c.Result.Publish(domain.Failure[[]domain.Image](fmt.Errorf("failed to fetch images: %w", err)))
			return
		}

		logging.Info("fetched %d images", len(images))
		c.Result.Publish(domain.Success(images))
	})
}

// DeriveFolders groups images into folders in the background and publishes them
func (c *Coordinator) DeriveFolders(images []domain.Image) {
	c.queue.Go("derive-folders", func() {
		var folders []domain.Folder
		if err := c.background.Run(func() error {
			folders = GroupFolders(images)
			return nil
		}); err != nil {
			logging.Error("failed to derive folders: %v", err)
			return
		}
		c.Folders.Publish(folders)
	})
}

// FilterImages publishes the images of one bucket, or all images when
// bucketID is nil
func (c *Coordinator) FilterImages(bucketID *int64, images []domain.Image) {
	if bucketID == nil {
		c.queue.Go("filter-all", func() {
			c.Images.Publish(domain.ImagesFilteredEvent{Images: images})
		})
		return
	}

	id := *bucketID
	c.queue.Go("filter-bucket", func() {
		var filtered []domain.Image
		if err := c.background.Run(func() error {
			filtered = FilterByBucket(images, id)
			return nil
		}); err != nil {
			logging.Error("failed to filter images for bucket %d: %v", id, err)
			return
		}
		c.Images.Publish(domain.ImagesFilteredEvent{BucketID: &id, Images: filtered})
	})
}

// OpenFolder signals that folder was opened
func (c *Coordinator) OpenFolder(folder domain.Folder) {
	c.FolderSelected.Publish(domain.FolderSelectedEvent{Folder: folder})
}

// SetSelected adds or removes img from the selection. A count notification is
// published on every call, even when nothing changed.
func (c *Coordinator) SetSelected(img domain.Image, selected bool) {
	c.selection.set(img, selected, c.publishCount)
}

// CompleteSelection signals that the user is done. Read the result with Selected.
func (c *Coordinator) CompleteSelection() {
	c.Completed.Publish(domain.SelectionCompletedEvent{})
}

// Selected returns a copy of the selection in selection order
func (c *Coordinator) Selected() []domain.Image {
	return c.selection.snapshot()
}

// SelectedCount returns the selection size
func (c *Coordinator) SelectedCount() int {
	return c.selection.len()
}

// IsSelected reports whether the image with id is selected
func (c *Coordinator) IsSelected(id int64) bool {
	return c.selection.contains(id)
}

func (c *Coordinator) publishCount(count int) {
	c.SelectionChanged.Publish(domain.SelectionChangedEvent{Count: count})
}

// CompressSelected compresses images with the configured quality and returns
// them in input order, each either pointing at its compressed copy or
// unchanged. Interaction is disabled for the duration. The error is non-nil
// only when the work was interrupted; the returned list is complete regardless.
func (c *Coordinator) CompressSelected(ctx context.Context, images []domain.Image) ([]domain.Image, error) {
	cfg := c.Config()

	c.Interaction.Publish(domain.InteractionChangedEvent{Disabled: true})
	defer c.Interaction.Publish(domain.InteractionChangedEvent{Disabled: false})

	out := make([]domain.Image, len(images))
	copy(out, images)

	err := c.background.Run(func() error {
		if cfg.CompressWorkers > 1 {
			return c.compressParallel(ctx, cfg, images, out)
		}
		for i, img := range images {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = c.compressOne(ctx, cfg, img)
		}
		return nil
	})
	if err != nil {
		logging.Warn("compression interrupted: %v", err)
	}
	return out, err
}

// compressParallel compresses with at most cfg.CompressWorkers images in flight
func (c *Coordinator) compressParallel(ctx context.Context, cfg domain.Configuration, images, out []domain.Image) error {
	pool := pond.NewPool(cfg.CompressWorkers, pond.WithContext(ctx))
	for i, img := range images {
		pool.Submit(func() {
			out[i] = c.compressOne(ctx, cfg, img)
		})
	}
	pool.StopAndWait()
	return ctx.Err()
}

func (c *Coordinator) compressOne(ctx context.Context, cfg domain.Configuration, img domain.Image) domain.Image {
	path, err := c.compressor.Compress(ctx, img.URI, img.Name, compress.Params{
		Quality:      cfg.Quality,
		MaxDimension: cfg.MaxDimension,
	})
	if err != nil {
		c.warn(img, err)
		return img
	}

	ref, err := c.compressor.Resolve(path)
	if err != nil {
		c.warn(img, fmt.Errorf("failed to resolve %s: %w", path, err))
		return img
	}
	return img.WithURI(ref)
}

func (c *Coordinator) warn(img domain.Image, reason error) {
	if errors.Is(reason, compress.ErrNotCompressed) {
		logging.Debug("keeping original %s: %v", img.Name, reason)
	} else {
		logging.Warn("keeping original %s: %v", img.Name, reason)
	}
	c.Warnings.Publish(domain.CompressionWarningEvent{Image: img, Reason: reason})
}

// Wait blocks until every queued fetch, derive and filter task has finished
func (c *Coordinator) Wait() {
	c.queue.Wait()
}

// Close waits for queued work, stops the owned pool and closes every topic
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.queue.Close()
		if c.ownedPool != nil {
			c.ownedPool.Stop()
		}
		c.Result.Close()
		c.FolderSelected.Close()
		c.Folders.Close()
		c.Images.Close()
		c.Completed.Close()
		c.SelectionChanged.Close()
		c.Interaction.Close()
		c.Warnings.Close()
	})
}
