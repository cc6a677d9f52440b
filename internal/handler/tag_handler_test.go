package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	dbmodels "github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTagService struct {
	createFn    func(ctx context.Context, userID uuid.UUID, name, color string, isVideoType bool, schemaID *uuid.UUID) (*dbmodels.Tag, error)
	getAllFn    func(ctx context.Context, userID uuid.UUID) ([]*dbmodels.Tag, error)
	updateFn    func(ctx context.Context, userID, tagID uuid.UUID, name, color string, schemaID *uuid.UUID) (*dbmodels.Tag, error)
	deleteFn    func(ctx context.Context, userID, tagID uuid.UUID) error
	videoTagsFn func(ctx context.Context, userID, videoID uuid.UUID) ([]*dbmodels.Tag, error)
	attachFn    func(ctx context.Context, userID, videoID, tagID uuid.UUID) (*service.AttachResult, error)
	detachFn    func(ctx context.Context, userID, videoID, tagID uuid.UUID) error
}

func (s *stubTagService) CreateTag(ctx context.Context, userID uuid.UUID, name, color string, isVideoType bool, schemaID *uuid.UUID) (*dbmodels.Tag, error) {
	return s.createFn(ctx, userID, name, color, isVideoType, schemaID)
}

func (s *stubTagService) GetTags(ctx context.Context, userID uuid.UUID) ([]*dbmodels.Tag, error) {
	return s.getAllFn(ctx, userID)
}

func (s *stubTagService) UpdateTag(ctx context.Context, userID, tagID uuid.UUID, name, color string, schemaID *uuid.UUID) (*dbmodels.Tag, error) {
	return s.updateFn(ctx, userID, tagID, name, color, schemaID)
}

func (s *stubTagService) DeleteTag(ctx context.Context, userID, tagID uuid.UUID) error {
	return s.deleteFn(ctx, userID, tagID)
}

func (s *stubTagService) GetVideoTags(ctx context.Context, userID, videoID uuid.UUID) ([]*dbmodels.Tag, error) {
	return s.videoTagsFn(ctx, userID, videoID)
}

func (s *stubTagService) AttachTag(ctx context.Context, userID, videoID, tagID uuid.UUID) (*service.AttachResult, error) {
	return s.attachFn(ctx, userID, videoID, tagID)
}

func (s *stubTagService) DetachTag(ctx context.Context, userID, videoID, tagID uuid.UUID) error {
	return s.detachFn(ctx, userID, videoID, tagID)
}

func tagRoutes(userID uuid.UUID, svc TagService) *gin.Engine {
	r := testRouter(userID)
	h := NewTagHandler(svc)
	r.POST("/tags", h.CreateTag)
	r.GET("/tags", h.GetTags)
	r.PUT("/tags/:tag_id", h.UpdateTag)
	r.DELETE("/tags/:tag_id", h.DeleteTag)
	r.GET("/videos/:id/tags", h.GetVideoTags)
	r.PUT("/videos/:id/tags/:tag_id", h.AttachTag)
	r.DELETE("/videos/:id/tags/:tag_id", h.DetachTag)
	return r
}

func TestTagHandler_CreateTag(t *testing.T) {
	schemaID := uuid.New()
	svc := &stubTagService{
		createFn: func(_ context.Context, userID uuid.UUID, name, color string, isVideoType bool, sid *uuid.UUID) (*dbmodels.Tag, error) {
			assert.Equal(t, "Tutorial", name)
			assert.Equal(t, "#ff8800", color)
			assert.True(t, isVideoType)
			require.NotNil(t, sid)
			assert.Equal(t, schemaID, *sid)
			return dbmodels.NewTag(userID, name, color, isVideoType, sid), nil
		},
	}

	w := performJSON(tagRoutes(uuid.New(), svc), http.MethodPost, "/tags", gin.H{
		"name":          "Tutorial",
		"color":         "#ff8800",
		"is_video_type": true,
		"schema_id":     schemaID,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var got dbmodels.Tag
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.IsVideoType)
}

func TestTagHandler_CreateTag_BadColor(t *testing.T) {
	svc := &stubTagService{}
	w := performJSON(tagRoutes(uuid.New(), svc), http.MethodPost, "/tags", gin.H{
		"name":  "Tutorial",
		"color": "orange",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTagHandler_AttachTag_CategorySwitch(t *testing.T) {
	videoID := uuid.New()
	tagID := uuid.New()
	svc := &stubTagService{
		attachFn: func(_ context.Context, _, gotVideo, gotTag uuid.UUID) (*service.AttachResult, error) {
			assert.Equal(t, videoID, gotVideo)
			assert.Equal(t, tagID, gotTag)
			return &service.AttachResult{Attached: true, CategorySwitched: true, BackupAvailable: true}, nil
		},
	}

	w := performJSON(tagRoutes(uuid.New(), svc), http.MethodPut,
		"/videos/"+videoID.String()+"/tags/"+tagID.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got service.AttachResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Attached)
	assert.True(t, got.CategorySwitched)
	assert.True(t, got.BackupAvailable)
}

func TestTagHandler_AttachTag_CategoryConflict(t *testing.T) {
	svc := &stubTagService{
		attachFn: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*service.AttachResult, error) {
			return nil, service.NewCategoryInvariantError("video already has a category tag")
		},
	}

	w := performJSON(tagRoutes(uuid.New(), svc), http.MethodPut,
		"/videos/"+uuid.NewString()+"/tags/"+uuid.NewString(), nil)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, service.CodeCategoryInvariant, decodeError(t, w).Error)
}

func TestTagHandler_DetachTag(t *testing.T) {
	called := false
	svc := &stubTagService{
		detachFn: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
			called = true
			return nil
		},
	}

	w := performJSON(tagRoutes(uuid.New(), svc), http.MethodDelete,
		"/videos/"+uuid.NewString()+"/tags/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, called)
}
