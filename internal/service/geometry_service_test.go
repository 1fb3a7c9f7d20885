package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
)

type fakeGeometryCache struct {
	geo    *models.PageGeometry
	getErr error
	setKey string
	setGeo *models.PageGeometry
	setErr error
}

func (f *fakeGeometryCache) Get(context.Context, string) (*models.PageGeometry, error) {
	return f.geo, f.getErr
}

func (f *fakeGeometryCache) Set(_ context.Context, documentID string, geo *models.PageGeometry) error {
	f.setKey = documentID
	f.setGeo = geo
	return f.setErr
}

func TestResolveServesFromCache(t *testing.T) {
	cached := letterGeometry(5)
	uploads := &fakeFileReader{err: errors.New("must not be read")}
	svc := NewGeometryService(uploads, &fakeGeometryCache{geo: cached}, nil)

	geo, err := svc.Resolve(context.Background(), &models.Document{ID: "doc-1", FilePath: "abc.pdf"})
	require.NoError(t, err)
	assert.Same(t, cached, geo)
}

func TestResolveParsesAndBackfillsCache(t *testing.T) {
	cache := &fakeGeometryCache{}
	svc := NewGeometryService(&fakeFileReader{data: pdfFixture(t, 2)}, cache, nil)

	geo, err := svc.Resolve(context.Background(), &models.Document{ID: "doc-1", FilePath: "abc.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 2, geo.PageCount)
	require.Len(t, geo.Pages, 2)
	assert.InDelta(t, 612, geo.Pages[0].Width, 0.5)
	assert.InDelta(t, 792, geo.Pages[0].Height, 0.5)
	assert.Equal(t, "doc-1", cache.setKey)
	assert.Same(t, geo, cache.setGeo)
}

func TestResolveToleratesCacheFailures(t *testing.T) {
	cache := &fakeGeometryCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	svc := NewGeometryService(&fakeFileReader{data: pdfFixture(t, 1)}, cache, nil)

	geo, err := svc.Resolve(context.Background(), &models.Document{ID: "doc-1", FilePath: "abc.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1, geo.PageCount)
}

func TestResolveMissingSourceIsIOError(t *testing.T) {
	svc := NewGeometryService(&fakeFileReader{err: errors.New("no such file")}, nil, nil)

	_, err := svc.Resolve(context.Background(), &models.Document{ID: "doc-1", FilePath: "gone.pdf"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrIO))
}
