// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// Deleter removes a single object.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Lister lists the objects under a prefix.
type Lister interface {
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Batch tuning. Vars so tests can shorten the backoff.
var (
	BatchSize      = 5
	DeleteRetries  = uint64(3)
	DeleteBackoff  = 200 * time.Millisecond
	ListRetries    = uint64(3)
	ListBackoff    = 250 * time.Millisecond
	ReconcileTries = uint64(5)
	ReconcileDelay = 500 * time.Millisecond
)

// ErrCountMismatch is returned by Reconcile when the listing never reaches
// the expected count.
var ErrCountMismatch = errors.New("storage listing count mismatch")

// DeleteResult is the outcome of deleting one key.
type DeleteResult struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// DeleteReport summarizes a batch delete.
type DeleteReport struct {
	Deleted int            `json:"deleted"`
	Failed  int            `json:"failed"`
	Results []DeleteResult `json:"results"`
}

// DeleteBatch deletes keys with at most BatchSize requests in flight,
// retrying each file with exponential backoff. Results keep the order of
// keys. A failing key never aborts the others.
func DeleteBatch(ctx context.Context, d Deleter, keys []string) DeleteReport {
	results := make([]DeleteResult, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(BatchSize)
	for i, key := range keys {
		g.Go(func() error {
			results[i] = DeleteResult{Key: key}
			b := retry.WithMaxRetries(DeleteRetries, retry.NewExponential(DeleteBackoff))
			err := retry.Do(gctx, b, func(ctx context.Context) error {
				if err := d.Delete(ctx, key); err != nil {
					return retry.RetryableError(err)
				}
				return nil
			})
			if err != nil {
				slog.Warn("object delete failed", "key", key, "error", err)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Deleted = true
			return nil
		})
	}
	_ = g.Wait()

	report := DeleteReport{Results: results}
	for _, r := range results {
		if r.Deleted {
			report.Deleted++
		} else {
			report.Failed++
		}
	}
	return report
}

// ListWithRetry lists prefix, retrying transient failures.
func ListWithRetry(ctx context.Context, l Lister, prefix string) ([]Object, error) {
	var objects []Object
	b := retry.WithMaxRetries(ListRetries, retry.NewExponential(ListBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		objects, err = l.List(ctx, prefix)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return objects, nil
}

// DeletePrefix removes every object under prefix and returns how many
// were deleted.
func DeletePrefix(ctx context.Context, c interface {
	Lister
	Deleter
}, prefix string) (int, error) {
	objects, err := ListWithRetry(ctx, c, prefix)
	if err != nil {
		return 0, err
	}
	keys := make([]string, len(objects))
	for i, o := range objects {
		keys[i] = o.Key
	}
	report := DeleteBatch(ctx, c, keys)
	if report.Failed > 0 {
		return report.Deleted, fmt.Errorf("delete prefix %s: %d of %d objects failed", prefix, report.Failed, len(keys))
	}
	return report.Deleted, nil
}

// Reconcile polls the listing under prefix until it holds exactly want
// objects, with constant backoff and a bounded number of attempts. The
// last listing is returned either way.
func Reconcile(ctx context.Context, l Lister, prefix string, want int) ([]Object, error) {
	var objects []Object
	b := retry.WithMaxRetries(ReconcileTries, retry.NewConstant(ReconcileDelay))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		objects, err = l.List(ctx, prefix)
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(objects) != want {
			return retry.RetryableError(fmt.Errorf("%w: have %d, want %d", ErrCountMismatch, len(objects), want))
		}
		return nil
	})
	if err != nil {
		return objects, fmt.Errorf("reconcile %s: %w", prefix, err)
	}
	return objects, nil
}
