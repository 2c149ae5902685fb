package studentvue

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/student"
)

// CachedFetcher memoizes the documents of another Fetcher for ttl.
// Children of a parent account share the cache under their own keys.
type CachedFetcher struct {
	next  student.Fetcher
	cache *cache.Cache
	child int
}

var (
	_ student.Fetcher       = (*CachedFetcher)(nil)
	_ student.ChildSelector = (*CachedFetcher)(nil)
)

func NewCachedFetcher(next student.Fetcher, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (f *CachedFetcher) ForChild(index int) student.Fetcher {
	next := f.next
	if cs, ok := next.(student.ChildSelector); ok {
		next = cs.ForChild(index)
	}
	return &CachedFetcher{next: next, cache: f.cache, child: index}
}

// Flush drops every cached document.
func (f *CachedFetcher) Flush() { f.cache.Flush() }

func (f *CachedFetcher) get(key string, fetch func() (core.Document, error)) (core.Document, error) {
	if doc, ok := f.cache.Get(key); ok {
		return doc.(core.Document), nil
	}
	doc, err := fetch()
	if err != nil {
		return nil, err
	}
	f.cache.SetDefault(key, doc)
	return doc, nil
}

func (f *CachedFetcher) key(method string, index *int) string {
	if index == nil {
		return fmt.Sprintf("%d:%s", f.child, method)
	}
	return fmt.Sprintf("%d:%s:%d", f.child, method, *index)
}

func (f *CachedFetcher) StudentList(ctx context.Context) (core.Document, error) {
	// the list is account wide
	return f.get(methodChildList, func() (core.Document, error) { return f.next.StudentList(ctx) })
}

func (f *CachedFetcher) Calendar(ctx context.Context) (core.Document, error) {
	return f.get(f.key(methodCalendar, nil), func() (core.Document, error) { return f.next.Calendar(ctx) })
}

func (f *CachedFetcher) Schedule(ctx context.Context, termIndex *int) (core.Document, error) {
	return f.get(f.key(methodClassList, termIndex), func() (core.Document, error) { return f.next.Schedule(ctx, termIndex) })
}

func (f *CachedFetcher) Gradebook(ctx context.Context, reportPeriod *int) (core.Document, error) {
	return f.get(f.key(methodGradebook, reportPeriod), func() (core.Document, error) { return f.next.Gradebook(ctx, reportPeriod) })
}
