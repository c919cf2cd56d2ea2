// Package batch auto-crops many images with a fixed pool of workers. A
// failing item never stops its siblings, and results come back in a stable
// order regardless of concurrency.
package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"k8s.io/klog/v2"

	"github.com/menta2k/autocrop/pkg/cropper"
	"github.com/menta2k/autocrop/pkg/detection"
	"github.com/menta2k/autocrop/pkg/types"
)

// ProgressFunc is called once per finished item with the number of finished
// items so far. It may be called from any worker, never concurrently.
type ProgressFunc func(done, total int, result types.BatchResult)

// Options configure a batch run.
type Options struct {
	EyeWeight   float64
	PadPct      float64
	Concurrency int
	// Quality of the written crops; <= 0 selects the full-size default.
	Quality    float64
	OnProgress ProgressFunc
}

// DefaultOptions returns the batch defaults.
func DefaultOptions() Options {
	return Options{EyeWeight: 0.6, PadPct: 0.16, Concurrency: 2}
}

// Suggester produces crop suggestions for an image.
type Suggester interface {
	SuggestCrops(ctx context.Context, ref types.ImageRef, ratios []string, opts cropper.Options) []types.Suggestion
}

// Cropper writes a crop of an image.
type Cropper interface {
	ApplyCrop(ctx context.Context, ref types.ImageRef, rect types.Rect, quality float64) (types.ImageRef, error)
}

// Processor runs batches
type Processor struct {
	suggester Suggester
	cropper   Cropper
}

// NewProcessor creates a batch processor.
func NewProcessor(s Suggester, c Cropper) *Processor {
	return &Processor{suggester: s, cropper: c}
}

// Run crops every item to ratio and returns one result per item, sorted by
// ID, or by source when the ID is empty. Run always processes every item;
// ctx is only handed to the collaborators.
func (p *Processor) Run(ctx context.Context, items []types.BatchItem, ratio string, opts Options) []types.BatchResult {
	total := len(items)
	results := make([]types.BatchResult, total)
	if total == 0 {
		return results
	}

	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	// The queue is filled up front and closed; receiving from it is the
	// exclusive pop.
	queue := make(chan int, total)
	for i := range items {
		queue <- i
	}
	close(queue)

	cropOpts := cropper.Options{
		Detect: detection.Options{EyeWeight: opts.EyeWeight, PadPct: opts.PadPct},
		PadPct: opts.PadPct,
	}

	var (
		mu   sync.Mutex
		done int
		wg   sync.WaitGroup
	)
	worker := func(id int) {
		defer wg.Done()
		for i := range queue {
			r := p.process(ctx, items[i], ratio, cropOpts, opts.Quality)
			results[i] = r

			mu.Lock()
			done++
			if r.OK() {
				klog.V(1).Infof("worker %d: [%d/%d] %s -> %s", id, done, total, items[i].Source, r.Output)
			} else {
				klog.Errorf("worker %d: [%d/%d] %s failed: %v", id, done, total, items[i].Source, r.Err)
			}
			if opts.OnProgress != nil {
				opts.OnProgress(done, total, r)
			}
			mu.Unlock()
		}
	}

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go worker(w)
	}
	wg.Wait()

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Input.SortKey() < results[b].Input.SortKey()
	})
	return results
}

// process runs the full pipeline for one item. Panics in collaborators are
// recorded as the item's error.
func (p *Processor) process(ctx context.Context, item types.BatchItem, ratio string, opts cropper.Options, quality float64) (r types.BatchResult) {
	r.Input = item
	defer func() {
		if v := recover(); v != nil {
			r.Output = ""
			r.Err = fmt.Errorf("panic processing %s: %v", item.Source, v)
		}
	}()

	suggestions := p.suggester.SuggestCrops(ctx, item.Source, []string{ratio}, opts)
	if len(suggestions) == 0 {
		r.Err = types.ErrNoSuggestion
		return r
	}

	out, err := p.cropper.ApplyCrop(ctx, item.Source, suggestions[0].Crop, quality)
	if err != nil {
		r.Err = err
		return r
	}
	r.Output = out
	return r
}
