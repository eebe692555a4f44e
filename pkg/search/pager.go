package search

import (
	"context"
	"errors"
	"iter"
)

var (
	// ErrStop may be returned from an iteration callback to end the walk
	// early without reporting an error.
	ErrStop = errors.New("search: stop iteration")

	// ErrNoResult is returned when a rank or position has no result.
	ErrNoResult = errors.New("search: no result at position")
)

// Pager provides page traversal over a cached page loader. It is embedded by
// every query type.
type Pager struct {
	perPage int
	cache   *PageCache
}

func newPager(perPage int, load PageLoader) *Pager {
	return &Pager{perPage: perPage, cache: NewPageCache(load)}
}

// ResultsPerPage is the page size used for rank arithmetic.
func (p *Pager) ResultsPerPage() int {
	return p.perPage
}

// Page returns the page at index, fetching it at most once.
func (p *Pager) Page(ctx context.Context, index int) (Page, error) {
	return p.cache.Get(ctx, index)
}

func (p *Pager) FirstPage(ctx context.Context) (Page, error) {
	return p.Page(ctx, 1)
}

// Pages returns the pages at indices, in order. Pages are fetched one at a
// time.
func (p *Pager) Pages(ctx context.Context, indices ...int) ([]Page, error) {
	pages := make([]Page, 0, len(indices))
	for _, i := range indices {
		page, err := p.Page(ctx, i)
		if err != nil {
			return pages, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// EachPage calls fn for the page at each index.
func (p *Pager) EachPage(ctx context.Context, indices []int, fn func(Page) error) error {
	for _, i := range indices {
		page, err := p.Page(ctx, i)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// All yields pages 1, 2, 3, ... until an empty page is fetched. There is no
// upper bound: an upstream that never returns an empty page never ends the
// sequence, so callers wanting a limit must break out themselves.
func (p *Pager) All(ctx context.Context) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		for i := 1; ; i++ {
			page, err := p.Page(ctx, i)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(page) == 0 {
				return
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}

// Each calls fn for every non-empty page in order. See All for termination.
func (p *Pager) Each(ctx context.Context, fn func(Page) error) error {
	for page, err := range p.All(ctx) {
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// EachOnPage calls fn for every result on the page at index.
func (p *Pager) EachOnPage(ctx context.Context, index int, fn func(Result) error) error {
	page, err := p.Page(ctx, index)
	if err != nil {
		return err
	}
	for _, r := range page {
		if err := fn(r); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// EachOnPages calls fn for every result on the pages at indices.
func (p *Pager) EachOnPages(ctx context.Context, indices []int, fn func(Result) error) error {
	return p.EachPage(ctx, indices, func(page Page) error {
		for _, r := range page {
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	})
}

// ResultAt returns the result with the given global rank.
func (p *Pager) ResultAt(ctx context.Context, rank int) (Result, error) {
	index, err := PageIndexOf(rank, p.perPage)
	if err != nil {
		return Result{}, err
	}
	pos, err := ResultIndexOf(rank, p.perPage)
	if err != nil {
		return Result{}, err
	}
	page, err := p.Page(ctx, index)
	if err != nil {
		return Result{}, err
	}
	if pos >= len(page) {
		return Result{}, ErrNoResult
	}
	return page[pos], nil
}

// TopResult returns the first result of the first page.
func (p *Pager) TopResult(ctx context.Context) (Result, error) {
	return p.ResultAt(ctx, 1)
}
