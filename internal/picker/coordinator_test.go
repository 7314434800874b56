package picker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagepick/internal/compress"
	"imagepick/internal/domain"
)

type fakeIndex struct {
	mu         sync.Mutex
	images     []domain.Image
	err        error
	predicates []*domain.Predicate
}

func (f *fakeIndex) ListImages(_ context.Context, predicate *domain.Predicate) ([]domain.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predicates = append(f.predicates, predicate)
	if f.err != nil {
		return nil, f.err
	}
	return f.images, nil
}

type fakeCompressor struct {
	compress func(ref, name string, p compress.Params) (string, error)
	resolve  func(path string) (string, error)
	calls    atomic.Int32
}

func (f *fakeCompressor) Compress(_ context.Context, ref, name string, p compress.Params) (string, error) {
	f.calls.Add(1)
	if f.compress == nil {
		return "", compress.ErrNotCompressed
	}
	return f.compress(ref, name, p)
}

func (f *fakeCompressor) Resolve(path string) (string, error) {
	if f.resolve == nil {
		return "file://" + path, nil
	}
	return f.resolve(path)
}

type fixedStrategy struct {
	predicate *domain.Predicate
}

func (s fixedStrategy) Predicate(domain.Configuration) *domain.Predicate {
	return s.predicate
}

// inlineBackground runs tasks on the calling goroutine
type inlineBackground struct{}

func (inlineBackground) Run(task func() error) error {
	return task()
}

func sampleImages() []domain.Image {
	return []domain.Image{
		{ID: 1, URI: "file:///pics/b/1.jpg", Name: "1.jpg", BucketID: 1, BucketName: "A"},
		{ID: 2, URI: "file:///pics/c/2.jpg", Name: "2.jpg", BucketID: 2, BucketName: "B"},
		{ID: 3, URI: "file:///pics/b/3.jpg", Name: "3.jpg", BucketID: 1, BucketName: "A"},
	}
}

func newTestCoordinator(t *testing.T, cfg domain.Configuration, index ImageIndex, compressor Compressor) *Coordinator {
	t.Helper()
	if index == nil {
		index = &fakeIndex{}
	}
	if compressor == nil {
		compressor = &fakeCompressor{}
	}
	c := NewCoordinator(cfg, index, compressor, fixedStrategy{}, WithBackground(inlineBackground{}))
	t.Cleanup(c.Close)
	return c
}

func drain[T any](ch <-chan T) []T {
	var out []T
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}

func TestSetSelectedTwiceKeepsOneEntry(t *testing.T) {
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, nil)
	img := sampleImages()[0]

	c.SetSelected(img, true)
	c.SetSelected(img, true)

	selected := c.Selected()
	require.Len(t, selected, 1)
	assert.Equal(t, img.ID, selected[0].ID)
	assert.True(t, c.IsSelected(img.ID))
}

func TestDeselectAbsentStillSignals(t *testing.T) {
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, nil)
	counts, unsubscribe := c.SelectionChanged.Subscribe()
	defer unsubscribe()

	c.SetSelected(sampleImages()[1], false)

	assert.Empty(t, c.Selected())
	assert.Equal(t, []domain.SelectionChangedEvent{{Count: 0}}, drain(counts))
}

func TestSelectionChangedIsNotReplayed(t *testing.T) {
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, nil)
	c.SetSelected(sampleImages()[0], true)

	late, unsubscribe := c.SelectionChanged.Subscribe()
	defer unsubscribe()
	assert.Empty(t, drain(late), "selection count is a signal")

	_, ok := c.SelectionChanged.Latest()
	assert.False(t, ok)
	assert.Len(t, c.Selected(), 1)
}

func TestSelectionKeepsOrderAndCounts(t *testing.T) {
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, nil)
	counts, unsubscribe := c.SelectionChanged.Subscribe()
	defer unsubscribe()

	images := sampleImages()
	c.SetSelected(images[2], true)
	c.SetSelected(images[0], true)
	c.SetSelected(images[1], true)
	c.SetSelected(images[0], false)

	selected := c.Selected()
	require.Len(t, selected, 2)
	assert.Equal(t, int64(3), selected[0].ID)
	assert.Equal(t, int64(2), selected[1].ID)
	assert.Equal(t, 2, c.SelectedCount())

	got := drain(counts)
	var values []int
	for _, e := range got {
		values = append(values, e.Count)
	}
	assert.Equal(t, []int{1, 2, 3, 2}, values)
}

func TestSelectedReturnsCopy(t *testing.T) {
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, nil)
	c.SetSelected(sampleImages()[0], true)

	snapshot := c.Selected()
	snapshot[0].Name = "changed"

	assert.Equal(t, "1.jpg", c.Selected()[0].Name)
}

func TestConcurrentSelectionIsConsistent(t *testing.T) {
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			img := domain.Image{ID: id % 10, Name: fmt.Sprintf("%d.jpg", id%10)}
			c.SetSelected(img, true)
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 10, c.SelectedCount())
}

func TestFetchClearsSelectionAndSignalsOnce(t *testing.T) {
	index := &fakeIndex{images: sampleImages()}
	c := newTestCoordinator(t, domain.DefaultConfiguration(), index, nil)

	c.SetSelected(sampleImages()[0], true)
	require.Equal(t, 1, c.SelectedCount())

	counts, unsubscribe := c.SelectionChanged.Subscribe()
	defer unsubscribe()

	c.FetchImages(context.Background())
	c.Wait()

	assert.Empty(t, c.Selected())
	assert.Equal(t, []domain.SelectionChangedEvent{{Count: 0}}, drain(counts))

	c.FetchImages(context.Background())
	c.Wait()
	assert.Len(t, drain(counts), 1)
}

func TestFetchPublishesLoadingThenSuccess(t *testing.T) {
	index := &fakeIndex{images: sampleImages()}
	c := newTestCoordinator(t, domain.DefaultConfiguration(), index, nil)

	results, unsubscribe := c.Result.Subscribe()
	defer unsubscribe()

	c.FetchImages(context.Background())
	c.Wait()

	got := drain(results)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ResultLoading, got[0].State)
	assert.Equal(t, domain.ResultSuccess, got[1].State)
	assert.Equal(t, sampleImages(), got[1].Data)

	latest, ok := c.Result.Latest()
	require.True(t, ok)
	assert.Equal(t, domain.ResultSuccess, latest.State)
}

func TestFetchUsesStrategyPredicate(t *testing.T) {
	index := &fakeIndex{}
	predicate := &domain.Predicate{Clause: "size >= ?", Args: []any{int64(10)}}
	c := NewCoordinator(domain.DefaultConfiguration(), index, &fakeCompressor{}, fixedStrategy{predicate: predicate}, WithBackground(inlineBackground{}))
	defer c.Close()

	c.FetchImages(context.Background())
	c.Wait()

	require.Len(t, index.predicates, 1)
	assert.Same(t, predicate, index.predicates[0])
}

func TestFetchFailureReported(t *testing.T) {
	boom := errors.New("provider down")
	index := &fakeIndex{err: boom}
	c := newTestCoordinator(t, domain.DefaultConfiguration(), index, nil)

	c.SetSelected(sampleImages()[0], true)
	c.FetchImages(context.Background())
	c.Wait()

	latest, ok := c.Result.Latest()
	require.True(t, ok)
	assert.Equal(t, domain.ResultFailure, latest.State)
	assert.ErrorIs(t, latest.Err, boom)
	assert.Empty(t, c.Selected(), "selection is cleared even when the fetch fails")
}

func TestFetchFailureSwallowed(t *testing.T) {
	cfg := domain.DefaultConfiguration()
	cfg.FetchFailure = domain.FailureSwallow
	c := newTestCoordinator(t, cfg, &fakeIndex{err: errors.New("provider down")}, nil)

	c.FetchImages(context.Background())
	c.Wait()

	latest, ok := c.Result.Latest()
	require.True(t, ok)
	assert.Equal(t, domain.ResultSuccess, latest.State)
	assert.Empty(t, latest.Data)
	assert.NoError(t, latest.Err)
}

func TestFetchRecoversFromPanickingProvider(t *testing.T) {
	c := NewCoordinator(domain.DefaultConfiguration(), panicIndex{}, &fakeCompressor{}, fixedStrategy{})
	defer c.Close()

	c.FetchImages(context.Background())
	c.Wait()

	latest, ok := c.Result.Latest()
	require.True(t, ok)
	assert.Equal(t, domain.ResultFailure, latest.State)
}

type panicIndex struct{}

func (panicIndex) ListImages(context.Context, *domain.Predicate) ([]domain.Image, error) {
	panic("index exploded")
}

func TestDeriveFoldersPublishesSortedFolders(t *testing.T) {
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, nil)

	images := []domain.Image{
		{ID: 1, BucketID: 2, BucketName: "B"},
		{ID: 2, BucketID: 1, BucketName: "A"},
		{ID: 3, BucketID: 1, BucketName: "A"},
	}
	c.DeriveFolders(images)
	c.Wait()

	folders, ok := c.Folders.Latest()
	require.True(t, ok)
	require.Len(t, folders, 2)
	assert.Equal(t, "A", folders[0].Name)
	assert.Equal(t, []domain.Image{images[1], images[2]}, folders[0].Images)
	assert.Equal(t, "B", folders[1].Name)
	assert.Equal(t, []domain.Image{images[0]}, folders[1].Images)
}

func TestFilterImages(t *testing.T) {
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, nil)
	images := sampleImages()

	t.Run("nil bucket republishes input", func(t *testing.T) {
		c.FilterImages(nil, images)
		c.Wait()
		got, ok := c.Images.Latest()
		require.True(t, ok)
		assert.Nil(t, got.BucketID)
		assert.Equal(t, images, got.Images)
	})

	t.Run("bucket subset in order", func(t *testing.T) {
		id := int64(1)
		c.FilterImages(&id, images)
		c.Wait()
		got, _ := c.Images.Latest()
		require.NotNil(t, got.BucketID)
		assert.Equal(t, int64(1), *got.BucketID)
		assert.Equal(t, []domain.Image{images[0], images[2]}, got.Images)
	})

	t.Run("unknown bucket is empty", func(t *testing.T) {
		id := int64(99)
		c.FilterImages(&id, images)
		c.Wait()
		got, _ := c.Images.Latest()
		assert.True(t, got.For(&id))
		assert.NotNil(t, got.Images)
		assert.Empty(t, got.Images)
	})
}

func TestQueuedTasksPublishInSubmissionOrder(t *testing.T) {
	c := NewCoordinator(domain.DefaultConfiguration(), &fakeIndex{}, &fakeCompressor{}, fixedStrategy{})
	defer c.Close()

	ch, unsubscribe := c.Images.Subscribe()
	defer unsubscribe()

	images := sampleImages()
	one, two := int64(1), int64(2)
	c.FilterImages(&one, images)
	c.FilterImages(&two, images)
	c.FilterImages(nil, images)
	c.Wait()

	got := drain(ch)
	require.Len(t, got, 3)
	assert.Len(t, got[0].Images, 2)
	assert.True(t, got[0].For(&one))
	assert.Len(t, got[1].Images, 1)
	assert.True(t, got[1].For(&two))
	assert.Len(t, got[2].Images, 3)
	assert.True(t, got[2].For(nil))
}

func TestOpenFolderAndCompleteSignal(t *testing.T) {
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, nil)

	folders, unsubFolders := c.FolderSelected.Subscribe()
	defer unsubFolders()
	completed, unsubCompleted := c.Completed.Subscribe()
	defer unsubCompleted()

	folder := domain.Folder{BucketID: 7, Name: "Camera"}
	c.OpenFolder(folder)
	c.CompleteSelection()

	assert.Equal(t, []domain.FolderSelectedEvent{{Folder: folder}}, drain(folders))
	assert.Len(t, drain(completed), 1)

	late, unsubLate := c.FolderSelected.Subscribe()
	defer unsubLate()
	assert.Empty(t, drain(late), "folder selection is a one-shot signal")
}

func TestCompressWithoutOutputReturnsEqualList(t *testing.T) {
	compressor := &fakeCompressor{}
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, compressor)

	interaction, unsubscribe := c.Interaction.Subscribe()
	defer unsubscribe()

	input := sampleImages()
	out, err := c.CompressSelected(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, input, out)
	assert.NotSame(t, &input[0], &out[0])
	assert.Equal(t, int32(len(input)), compressor.calls.Load())
	assert.Equal(t, []domain.InteractionChangedEvent{{Disabled: true}, {Disabled: false}}, drain(interaction))
}

func TestCompressReplacesReferences(t *testing.T) {
	compressor := &fakeCompressor{
		compress: func(ref, name string, p compress.Params) (string, error) {
			if name == "2.jpg" {
				return "", compress.ErrUnsupported
			}
			return fmt.Sprintf("/cache/%s_q%d", name, p.Quality), nil
		},
	}
	cfg := domain.DefaultConfiguration()
	cfg.Quality = 55
	c := newTestCoordinator(t, cfg, nil, compressor)

	warnings, unsubscribe := c.Warnings.Subscribe()
	defer unsubscribe()

	input := sampleImages()
	out, err := c.CompressSelected(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "file:///cache/1.jpg_q55", out[0].URI)
	assert.Equal(t, input[1], out[1])
	assert.Equal(t, "file:///cache/3.jpg_q55", out[2].URI)
	assert.Equal(t, input[0].ID, out[0].ID)
	assert.Equal(t, "file:///pics/b/1.jpg", input[0].URI, "input is not modified")

	got := drain(warnings)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Image.ID)
	assert.ErrorIs(t, got[0].Reason, compress.ErrUnsupported)
}

func TestCompressResolveFailureKeepsOriginal(t *testing.T) {
	compressor := &fakeCompressor{
		compress: func(ref, name string, p compress.Params) (string, error) { return "/cache/x.jpg", nil },
		resolve:  func(string) (string, error) { return "", errors.New("gone") },
	}
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, compressor)

	input := sampleImages()[:1]
	out, err := c.CompressSelected(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestCompressParallelPreservesOrder(t *testing.T) {
	compressor := &fakeCompressor{
		compress: func(ref, name string, p compress.Params) (string, error) {
			if name == "1.jpg" {
				time.Sleep(20 * time.Millisecond)
			}
			return "/cache/" + name, nil
		},
	}
	cfg := domain.DefaultConfiguration()
	cfg.CompressWorkers = 3
	c := newTestCoordinator(t, cfg, nil, compressor)

	out, err := c.CompressSelected(context.Background(), sampleImages())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "file:///cache/1.jpg", out[0].URI)
	assert.Equal(t, "file:///cache/2.jpg", out[1].URI)
	assert.Equal(t, "file:///cache/3.jpg", out[2].URI)
}

func TestCompressCancelledKeepsRemainingOriginals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	compressor := &fakeCompressor{
		compress: func(ref, name string, p compress.Params) (string, error) {
			cancel()
			return "/cache/" + name, nil
		},
	}
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, compressor)

	interaction, unsubscribe := c.Interaction.Subscribe()
	defer unsubscribe()

	input := sampleImages()
	out, err := c.CompressSelected(ctx, input)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, out, 3)
	assert.Equal(t, "file:///cache/1.jpg", out[0].URI)
	assert.Equal(t, input[1:], out[1:])
	assert.Len(t, drain(interaction), 2, "interaction is re-enabled after cancellation")
}

func TestUpdateConfigIsSeenByNextFetch(t *testing.T) {
	c := newTestCoordinator(t, domain.DefaultConfiguration(), &fakeIndex{err: errors.New("x")}, nil)

	cfg := c.Config()
	cfg.FetchFailure = domain.FailureSwallow
	c.UpdateConfig(cfg)

	c.FetchImages(context.Background())
	c.Wait()

	latest, _ := c.Result.Latest()
	assert.Equal(t, domain.ResultSuccess, latest.State)
	assert.Equal(t, domain.FailureSwallow, c.Config().FetchFailure)
}

func TestCompressUsesCurrentConfiguration(t *testing.T) {
	var (
		mu     sync.Mutex
		params []compress.Params
	)
	compressor := &fakeCompressor{
		compress: func(ref, name string, p compress.Params) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			params = append(params, p)
			return "/cache/" + name, nil
		},
	}
	c := newTestCoordinator(t, domain.DefaultConfiguration(), nil, compressor)

	cfg := c.Config()
	cfg.Quality = 70
	cfg.MaxDimension = 640
	c.UpdateConfig(cfg)

	_, err := c.CompressSelected(context.Background(), sampleImages()[:1])
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []compress.Params{{Quality: 70, MaxDimension: 640}}, params)
}
