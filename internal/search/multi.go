// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/pkg/types"
)

// MultiProvider queries several providers concurrently and merges their
// results by descending score. It fails only when every provider fails.
type MultiProvider struct {
	Providers []Provider
	Logger    *zap.Logger
}

// Name joins the member names.
func (m *MultiProvider) Name() string {
	names := make([]string, len(m.Providers))
	for i, p := range m.Providers {
		names[i] = p.Name()
	}
	return strings.Join(names, "+")
}

// Search fans the request out to every provider.
func (m *MultiProvider) Search(ctx context.Context, r Request) ([]types.SearchResult, error) {
	if len(m.Providers) == 0 {
		return nil, errors.New("no search providers configured")
	}

	type outcome struct {
		results []types.SearchResult
		err     error
	}
	outcomes := make([]outcome, len(m.Providers))

	var wg sync.WaitGroup
	for i, p := range m.Providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			res, err := p.Search(ctx, r)
			outcomes[i] = outcome{results: res, err: err}
		}(i, p)
	}
	wg.Wait()

	var all []types.SearchResult
	var errs []error
	for i, o := range outcomes {
		if o.err != nil {
			name := m.Providers[i].Name()
			if m.Logger != nil {
				m.Logger.Warn("search provider failed", zap.String("provider", name), zap.Error(o.err))
			}
			errs = append(errs, fmt.Errorf("%s: %w", name, o.err))
			continue
		}
		all = append(all, o.results...)
	}
	if len(errs) == len(m.Providers) {
		return nil, errors.Join(errs...)
	}
	SortByScore(all)
	return all, nil
}
