// Package storage turns stored attachment paths (avatars, receipts) into
// URLs clients can fetch.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"
)

// URLResolver maps a stored object path to a public or signed URL.
type URLResolver interface {
	GetURL(ctx context.Context, objectPath string) (string, error)
}

// BaseURLResolver serves objects from a static base URL.
type BaseURLResolver struct {
	baseURL string
}

func NewBaseURLResolver(baseURL string) *BaseURLResolver {
	return &BaseURLResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// GetURL implements URLResolver. Absolute URLs are returned unchanged.
func (r *BaseURLResolver) GetURL(ctx context.Context, objectPath string) (string, error) {
	if strings.HasPrefix(objectPath, "http://") || strings.HasPrefix(objectPath, "https://") {
		return objectPath, nil
	}

	cleanPath := path.Clean("/" + objectPath)
	if cleanPath == "/" {
		return "", fmt.Errorf("invalid object path: %q", objectPath)
	}
	return r.baseURL + cleanPath, nil
}

// ResolveAll resolves every non-nil path concurrently, at most limit at a time,
// and returns the URLs in input order. Nil paths resolve to nil.
func ResolveAll(ctx context.Context, resolver URLResolver, paths []*string, limit int) ([]*string, error) {
	urls := make([]*string, len(paths))
	if resolver == nil {
		return urls, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range paths {
		if p == nil || *p == "" {
			continue
		}
		g.Go(func() error {
			url, err := resolver.GetURL(ctx, *p)
			if err != nil {
				return fmt.Errorf("failed to resolve %q: %w", *p, err)
			}
			urls[i] = &url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
