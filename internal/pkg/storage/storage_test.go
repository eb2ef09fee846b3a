package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestBaseURLResolver_GetURL(t *testing.T) {
	r := NewBaseURLResolver("https://cdn.example.com/uploads/")
	ctx := context.Background()

	url, err := r.GetURL(ctx, "avatars/1.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/avatars/1.png", url)

	url, err = r.GetURL(ctx, "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/etc/passwd", url)

	url, err = r.GetURL(ctx, "https://elsewhere.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://elsewhere.example.com/a.png", url)

	_, err = r.GetURL(ctx, "")
	assert.Error(t, err)
}

type failingResolver struct{}

func (failingResolver) GetURL(context.Context, string) (string, error) {
	return "", errors.New("bucket offline")
}

func TestResolveAll(t *testing.T) {
	ctx := context.Background()
	paths := []*string{ptr("a.png"), nil, ptr("b.png"), ptr("")}

	urls, err := ResolveAll(ctx, NewBaseURLResolver("http://files"), paths, 2)
	require.NoError(t, err)
	require.Len(t, urls, 4)
	assert.Equal(t, "http://files/a.png", *urls[0])
	assert.Nil(t, urls[1])
	assert.Equal(t, "http://files/b.png", *urls[2])
	assert.Nil(t, urls[3])

	_, err = ResolveAll(ctx, failingResolver{}, paths, 0)
	assert.Error(t, err)

	urls, err = ResolveAll(ctx, nil, paths, 0)
	require.NoError(t, err)
	assert.Len(t, urls, 4)
}
