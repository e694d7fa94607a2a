// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package rsli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/woozymasta/pathrules"
)

// extractWorkItem stores one selected entry with its prepared output name.
type extractWorkItem struct {
	name  string
	index int
	entry EntryInfo
}

// Extract writes selected entries to dstDir. RsLi names form a flat
// namespace, so every output lands directly in dstDir. Extraction is
// parallelized by MaxWorkers; on failure the first encountered error is
// returned.
func (l *Library) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	if l == nil {
		return ErrNilLibrary
	}
	if l.isClosed() {
		return ErrClosed
	}

	matcher, err := compileExtractMatcher(opts.Rules, opts.RuleMatcherOptions)
	if err != nil {
		return err
	}

	workItems, err := prepareExtractWorkItems(l.entries, matcher, opts.RawNames)
	if err != nil {
		return err
	}
	if len(workItems) == 0 {
		return nil
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	taskCh := make(chan extractWorkItem, len(workItems))
	errCh := make(chan error, len(workItems))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			for task := range taskCh {
				// errCh is sized to the work list, so the send never blocks.
				errCh <- l.extractPreparedEntry(ctx, dstRootAbs, task, opts.OnEntryDone)
			}
		})
	}

	for _, task := range workItems {
		select {
		case <-ctx.Done():
			close(taskCh)
			wg.Wait()
			return ctx.Err()
		case taskCh <- task:
		}
	}

	close(taskCh)
	wg.Wait()
	close(errCh)

	var first error
	for err := range errCh {
		if err != nil && first == nil {
			first = err
		}
	}

	return first
}

// compileExtractMatcher compiles include/exclude name rules.
func compileExtractMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*pathrules.Matcher, error) {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.Pattern == "" {
			continue
		}

		normalized = append(normalized, rule)
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(normalized, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidExtractRules, err)
	}

	return matcher, nil
}

// prepareExtractWorkItems selects entries through the matcher and prepares
// output file names.
func prepareExtractWorkItems(entries []entryRecord, matcher *pathrules.Matcher, rawNames bool) ([]extractWorkItem, error) {
	workItems := make([]extractWorkItem, 0, len(entries))
	for i := range entries {
		info := entries[i].info
		if info.Name == "" {
			continue
		}
		if matcher != nil && !matcher.Included(info.Name, false) {
			continue
		}

		name := info.Name
		if !rawNames {
			sanitized, err := sanitizeEntryName(name)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}

			name = sanitized
		}

		workItems = append(workItems, extractWorkItem{
			name:  name,
			index: i,
			entry: info,
		})
	}

	return workItems, nil
}

// extractPreparedEntry decodes and writes one prepared work item.
func (l *Library) extractPreparedEntry(
	ctx context.Context,
	dstRootAbs string,
	task extractWorkItem,
	onEntryDone func(entry EntryInfo, written int64, outputPath string),
) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := l.Load(task.index)
	if err != nil {
		return fmt.Errorf("extract %s: %w", task.entry.Name, err)
	}

	outputPath := filepath.Join(dstRootAbs, task.name)
	if err := os.WriteFile(outputPath, data, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}

	if onEntryDone != nil {
		onEntryDone(task.entry, int64(len(data)), outputPath)
	}

	return nil
}
