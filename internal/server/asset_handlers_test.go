package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstash/clipstash/internal/usecase"
)

// fakeService stubs the handler-facing surface; only the methods a test
// exercises are wired.
type fakeService struct {
	asset    usecase.Asset
	assetErr error

	searched    *usecase.ListAssetsOption
	searchList  []usecase.Asset
	searchTotal int

	uploaded  *usecase.RequestUploadOption
	uploadErr error

	processed  []uuid.UUID
	enqueued   []uuid.UUID
	processErr error

	download usecase.Download
}

func (f *fakeService) Health() map[string]string { return map[string]string{"status": "up"} }
func (f *fakeService) Close() error              { return nil }

func (f *fakeService) RequestUpload(_ context.Context, opt usecase.RequestUploadOption) (usecase.UploadTarget, error) {
	f.uploaded = &opt
	if f.uploadErr != nil {
		return usecase.UploadTarget{}, f.uploadErr
	}
	return usecase.UploadTarget{
		AssetID:     uuid.MustParse("6b6f9d2e-64a4-4f3e-9f6a-0f31c8f0a111"),
		UploadURL:   "https://store.test/upload/uploads/1-a.mp4",
		StoragePath: "uploads/1-a.mp4",
	}, nil
}

func (f *fakeService) GetAssetByID(context.Context, uuid.UUID) (usecase.Asset, error) {
	return f.asset, f.assetErr
}

func (f *fakeService) SearchAssets(_ context.Context, opt usecase.ListAssetsOption) ([]usecase.Asset, int, error) {
	f.searched = &opt
	return f.searchList, f.searchTotal, nil
}

func (f *fakeService) UpdateAsset(context.Context, uuid.UUID, usecase.UpdateAssetOption) (usecase.Asset, error) {
	return f.asset, f.assetErr
}

func (f *fakeService) DeleteAsset(context.Context, uuid.UUID) error { return f.assetErr }

func (f *fakeService) DownloadAsset(context.Context, uuid.UUID) (usecase.Download, error) {
	return f.download, f.assetErr
}

func (f *fakeService) GetThumbnail(context.Context, uuid.UUID) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader("jpeg")), 4, f.assetErr
}

func (f *fakeService) ProcessAsset(_ context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	return f.processErr
}

func (f *fakeService) EnqueueProcessAsset(_ context.Context, id uuid.UUID) error {
	f.enqueued = append(f.enqueued, id)
	return f.processErr
}

func (f *fakeService) PopularTags(context.Context, usecase.ListPopularTagsOption) ([]usecase.TagCount, error) {
	return nil, nil
}

func (f *fakeService) CreateCollection(context.Context, usecase.Collection, uuid.UUIDs) (usecase.Collection, error) {
	return usecase.Collection{}, nil
}

func (f *fakeService) GetCollectionByID(context.Context, uuid.UUID) (usecase.Collection, error) {
	return usecase.Collection{}, nil
}

func (f *fakeService) AddCollectionAssets(context.Context, uuid.UUID, uuid.UUIDs) error { return nil }

func (f *fakeService) ExportCollection(context.Context, uuid.UUID, io.Writer) error { return nil }

func (f *fakeService) StreamAssetEvents(context.Context) (<-chan usecase.AssetEvent, error) {
	return nil, nil
}

func newTestServer(f *fakeService) *Server {
	return &Server{server: f, validator: validator.New()}
}

func newEchoContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGetAssetByID(t *testing.T) {
	id := uuid.New()
	f := &fakeService{asset: usecase.Asset{
		ID:            id,
		Kind:          usecase.KindVideo,
		Title:         "celebration",
		ThumbnailPath: "thumbnails/x.jpg",
	}}
	s := newTestServer(f)

	c, rec := newEchoContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	require.NoError(t, s.GetAssetByID(c))
	assert.Equal(t, 200, rec.Code)

	var res struct {
		Data Asset `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, id.String(), res.Data.ID)
	assert.Equal(t, "PROCESSED", res.Data.Status)
	assert.Equal(t, "celebration", res.Data.Title)
}

func TestGetAssetByIDInvalidID(t *testing.T) {
	s := newTestServer(&fakeService{})

	c, rec := newEchoContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	require.NoError(t, s.GetAssetByID(c))
	assert.Equal(t, 400, rec.Code)
}

func TestGetAssetByIDNotFound(t *testing.T) {
	s := newTestServer(&fakeService{assetErr: &usecase.NotFoundError{Resource: "asset"}})

	c, rec := newEchoContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	require.NoError(t, s.GetAssetByID(c))
	assert.Equal(t, 404, rec.Code)
}

func TestRequestUpload(t *testing.T) {
	f := &fakeService{}
	s := newTestServer(f)

	c, rec := newEchoContext(http.MethodPost, "/api/v1/uploads",
		`{"filename":"team win.mp4","content_type":"video/mp4"}`)

	require.NoError(t, s.RequestUpload(c))
	assert.Equal(t, 201, rec.Code)

	require.NotNil(t, f.uploaded)
	assert.Equal(t, "team win.mp4", f.uploaded.Filename)
	assert.Equal(t, "video/mp4", f.uploaded.ContentType)

	var res struct {
		Data UploadTarget `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "uploads/1-a.mp4", res.Data.StoragePath)
	assert.NotEmpty(t, res.Data.UploadURL)
}

func TestRequestUploadMissingFields(t *testing.T) {
	s := newTestServer(&fakeService{})

	c, rec := newEchoContext(http.MethodPost, "/api/v1/uploads", `{"filename":"a.mp4"}`)

	require.NoError(t, s.RequestUpload(c))
	assert.Equal(t, 400, rec.Code)
}

func TestRequestUploadValidationErrorFromService(t *testing.T) {
	s := newTestServer(&fakeService{uploadErr: &usecase.ValidationError{Msg: "filename is required"}})

	c, rec := newEchoContext(http.MethodPost, "/api/v1/uploads",
		`{"filename":"a.mp4","content_type":"video/mp4"}`)

	require.NoError(t, s.RequestUpload(c))
	assert.Equal(t, 400, rec.Code)
}

func TestProcessAssetSyncAndBackground(t *testing.T) {
	id := uuid.New()

	f := &fakeService{asset: usecase.Asset{ID: id, Kind: usecase.KindVideo}}
	s := newTestServer(f)

	c, rec := newEchoContext(http.MethodPost, "/?background=true", "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	require.NoError(t, s.ProcessAsset(c))
	assert.Equal(t, 202, rec.Code)
	assert.Equal(t, []uuid.UUID{id}, f.enqueued)
	assert.Empty(t, f.processed)

	c, rec = newEchoContext(http.MethodPost, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	require.NoError(t, s.ProcessAsset(c))
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, []uuid.UUID{id}, f.processed)
}

func TestListAssetsBindsFacets(t *testing.T) {
	f := &fakeService{}
	s := newTestServer(f)

	c, rec := newEchoContext(http.MethodGet,
		"/api/v1/assets?q=office&emotion=happy&kind=video&min_duration=2&limit=10&page=3", "")

	require.NoError(t, s.ListAssets(c))
	assert.Equal(t, 200, rec.Code)

	require.NotNil(t, f.searched)
	assert.Equal(t, "office", f.searched.Query)
	assert.Equal(t, "happy", f.searched.Emotion)
	assert.Equal(t, "video", f.searched.Kind)
	require.NotNil(t, f.searched.MinDuration)
	assert.Equal(t, 2.0, *f.searched.MinDuration)
	assert.Equal(t, 10, f.searched.Limit)
	assert.Equal(t, 20, f.searched.Skip)
}

func TestListAssetsDefaultsToFirstPage(t *testing.T) {
	f := &fakeService{}
	s := newTestServer(f)

	c, rec := newEchoContext(http.MethodGet, "/api/v1/assets?limit=10", "")

	require.NoError(t, s.ListAssets(c))
	assert.Equal(t, 200, rec.Code)

	require.NotNil(t, f.searched)
	assert.Equal(t, 0, f.searched.Skip)
}

func TestListAssetsRejectsBadKind(t *testing.T) {
	s := newTestServer(&fakeService{})

	c, rec := newEchoContext(http.MethodGet, "/api/v1/assets?kind=audio&limit=10", "")

	require.NoError(t, s.ListAssets(c))
	assert.Equal(t, 400, rec.Code)
}

func TestDownloadAssetHeaders(t *testing.T) {
	id := uuid.New()
	f := &fakeService{download: usecase.Download{
		Filename:    "happy.mp4",
		ContentType: "video/mp4",
		Size:        11,
		Body:        io.NopCloser(strings.NewReader("media bytes")),
	}}
	s := newTestServer(f)

	c, rec := newEchoContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	require.NoError(t, s.DownloadAsset(c))
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, `attachment; filename="happy.mp4"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "video/mp4", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "media bytes", rec.Body.String())
}
