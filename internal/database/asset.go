package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clipstash/clipstash/internal/usecase"
)

type Asset struct {
	ID              uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Kind            string    `gorm:"column:kind;type:varchar(10);not null;index"`
	Title           string    `gorm:"column:title;type:varchar(255)"`
	Description     string    `gorm:"column:description;type:text"`
	StoragePath     string    `gorm:"column:storage_path;type:varchar(255);not null"`
	ThumbnailPath   *string   `gorm:"column:thumbnail_path;type:varchar(255)"`
	DurationSeconds *float64  `gorm:"column:duration_seconds;type:numeric"`
	Width           *int      `gorm:"column:width;type:int"`
	Height          *int      `gorm:"column:height;type:int"`
	FileSizeBytes   *int64    `gorm:"column:file_size_bytes;type:bigint"`

	EmotionTags   datatypes.JSONSlice[string] `gorm:"column:emotion_tags;type:jsonb"`
	ReactionTags  datatypes.JSONSlice[string] `gorm:"column:reaction_tags;type:jsonb"`
	SituationTags datatypes.JSONSlice[string] `gorm:"column:situation_tags;type:jsonb"`
	IdentityTags  datatypes.JSONSlice[string] `gorm:"column:identity_tags;type:jsonb"`
	SourceTags    datatypes.JSONSlice[string] `gorm:"column:source_tags;type:jsonb"`
	ObjectTags    datatypes.JSONSlice[string] `gorm:"column:object_tags;type:jsonb"`
	CharacterTags datatypes.JSONSlice[string] `gorm:"column:character_tags;type:jsonb"`
	ActionTags    datatypes.JSONSlice[string] `gorm:"column:action_tags;type:jsonb"`
	ColorTags     datatypes.JSONSlice[string] `gorm:"column:color_tags;type:jsonb"`
	TimeTags      datatypes.JSONSlice[string] `gorm:"column:time_tags;type:jsonb"`

	Colors          datatypes.JSONSlice[string] `gorm:"column:colors;type:jsonb"`
	SearchText      string                      `gorm:"column:search_text;type:text"`
	TagQualityScore int                         `gorm:"column:tag_quality_score;type:int;default:0"`
	DownloadCount   int64                       `gorm:"column:download_count;type:bigint;default:0"`
	CreatedAt       time.Time                   `gorm:"column:created_at;index"`
	UpdatedAt       time.Time                   `gorm:"column:updated_at"`
}

func (Asset) TableName() string {
	return "assets"
}

// tagColumns in canonical category order; index i corresponds to
// usecase.TagCategories[i].
var tagColumns = []string{
	"emotion_tags", "reaction_tags", "situation_tags", "identity_tags",
	"source_tags", "object_tags", "character_tags", "action_tags",
	"color_tags", "time_tags",
}

const searchVectorExpr = "to_tsvector('english', coalesce(search_text, ''))"

func (s *service) CreateAsset(ctx context.Context, asset usecase.Asset) (usecase.Asset, error) {
	a := Asset{
		Kind:            asset.Kind,
		Title:           asset.Title,
		Description:     asset.Description,
		StoragePath:     asset.StoragePath,
		SearchText:      usecase.SearchText(asset.Title, asset.Description, asset.Tags),
		TagQualityScore: asset.Tags.QualityScore(),
	}
	setTagColumns(&a, asset.Tags)

	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return usecase.Asset{}, &usecase.StoreError{Op: "create asset", Err: err}
	}
	return a.ConvertToUsecase(), nil
}

func (s *service) GetAssetByID(ctx context.Context, id uuid.UUID) (usecase.Asset, error) {
	var a Asset
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Asset{}, &usecase.NotFoundError{Resource: "asset"}
	}
	if err != nil {
		return usecase.Asset{}, &usecase.StoreError{Op: "get asset", Err: err}
	}
	return a.ConvertToUsecase(), nil
}

func (s *service) ListAssets(ctx context.Context, opt usecase.ListAssetsOption) ([]usecase.Asset, int, error) {
	var (
		assets []Asset
		count  int64
	)

	db := s.db.WithContext(ctx).Model(&Asset{})

	if opt.Query != "" {
		db = db.Where(searchVectorExpr+" @@ websearch_to_tsquery('english', ?)", opt.Query)
	}

	facets := []string{
		opt.Emotion, opt.Reaction, opt.Situation, opt.Identity, opt.Source,
		opt.Object, opt.Character, opt.Action, opt.Color, opt.Time,
	}
	for i, value := range facets {
		if value == "" {
			continue
		}
		// Set containment, not equality: the column must contain the value.
		needle, err := json.Marshal([]string{value})
		if err != nil {
			return nil, 0, &usecase.StoreError{Op: "encode facet filter", Err: err}
		}
		db = db.Where(fmt.Sprintf("%s @> ?::jsonb", tagColumns[i]), string(needle))
	}

	if opt.Kind != "" {
		db = db.Where("kind = ?", opt.Kind)
	}
	// SQL null comparison already excludes unprocessed assets from
	// duration-bounded queries.
	if opt.MinDuration != nil {
		db = db.Where("duration_seconds >= ?", *opt.MinDuration)
	}
	if opt.MaxDuration != nil {
		db = db.Where("duration_seconds <= ?", *opt.MaxDuration)
	}

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, &usecase.StoreError{Op: "count assets", Err: err}
	}

	if opt.Query != "" {
		db = db.Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                fmt.Sprintf("ts_rank(%s, websearch_to_tsquery('english', ?)) DESC, created_at DESC", searchVectorExpr),
			Vars:               []interface{}{opt.Query},
			WithoutParentheses: true,
		}})
	} else {
		db = db.Order("created_at DESC")
	}

	err := db.
		Limit(opt.Limit).
		Offset(opt.Skip).
		Find(&assets).
		Error
	if err != nil {
		return nil, 0, &usecase.StoreError{Op: "list assets", Err: err}
	}

	list := make([]usecase.Asset, 0, len(assets))
	for _, a := range assets {
		list = append(list, a.ConvertToUsecase())
	}
	return list, int(count), nil
}

func (s *service) UpdateAsset(ctx context.Context, id uuid.UUID, up usecase.AssetUpdate) (usecase.Asset, error) {
	values := map[string]interface{}{}

	if up.Title != nil {
		values["title"] = *up.Title
	}
	if up.Description != nil {
		values["description"] = *up.Description
	}
	if up.Tags != nil {
		by := up.Tags.ByCategory()
		for i, category := range usecase.TagCategories {
			values[tagColumns[i]] = datatypes.NewJSONSlice(emptyAsNil(by[category]))
		}
	}
	if up.SearchText != nil {
		values["search_text"] = *up.SearchText
	}
	if up.TagQuality != nil {
		values["tag_quality_score"] = *up.TagQuality
	}
	if up.ThumbnailPath != nil {
		values["thumbnail_path"] = *up.ThumbnailPath
	}
	if up.DurationSeconds != nil {
		values["duration_seconds"] = *up.DurationSeconds
	}
	if up.Width != nil {
		values["width"] = *up.Width
	}
	if up.Height != nil {
		values["height"] = *up.Height
	}
	if up.FileSizeBytes != nil {
		values["file_size_bytes"] = *up.FileSizeBytes
	}
	if up.Colors != nil {
		values["colors"] = datatypes.NewJSONSlice(up.Colors)
	}

	if len(values) > 0 {
		res := s.db.WithContext(ctx).Model(&Asset{}).Where("id = ?", id).Updates(values)
		if res.Error != nil {
			return usecase.Asset{}, &usecase.StoreError{Op: "update asset", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return usecase.Asset{}, &usecase.NotFoundError{Resource: "asset"}
		}
	}

	return s.GetAssetByID(ctx, id)
}

func (s *service) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Asset{})
	if res.Error != nil {
		return &usecase.StoreError{Op: "delete asset", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &usecase.NotFoundError{Resource: "asset"}
	}
	return nil
}

func (s *service) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&Asset{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
	if res.Error != nil {
		return &usecase.StoreError{Op: "increment download count", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &usecase.NotFoundError{Resource: "asset"}
	}
	return nil
}

func setTagColumns(a *Asset, tags usecase.TagSets) {
	a.EmotionTags = datatypes.NewJSONSlice(emptyAsNil(tags.Emotion))
	a.ReactionTags = datatypes.NewJSONSlice(emptyAsNil(tags.Reaction))
	a.SituationTags = datatypes.NewJSONSlice(emptyAsNil(tags.Situation))
	a.IdentityTags = datatypes.NewJSONSlice(emptyAsNil(tags.Identity))
	a.SourceTags = datatypes.NewJSONSlice(emptyAsNil(tags.Source))
	a.ObjectTags = datatypes.NewJSONSlice(emptyAsNil(tags.Object))
	a.CharacterTags = datatypes.NewJSONSlice(emptyAsNil(tags.Character))
	a.ActionTags = datatypes.NewJSONSlice(emptyAsNil(tags.Action))
	a.ColorTags = datatypes.NewJSONSlice(emptyAsNil(tags.Color))
	a.TimeTags = datatypes.NewJSONSlice(emptyAsNil(tags.Time))
}

// emptyAsNil keeps jsonb columns as [] rather than SQL null so the GIN
// containment operator always has a value to test.
func emptyAsNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// Convert core model to Usecase
func (a Asset) ConvertToUsecase() usecase.Asset {
	var thumb string
	if a.ThumbnailPath != nil {
		thumb = *a.ThumbnailPath
	}
	return usecase.Asset{
		ID:              a.ID,
		Kind:            a.Kind,
		Title:           a.Title,
		Description:     a.Description,
		StoragePath:     a.StoragePath,
		ThumbnailPath:   thumb,
		DurationSeconds: a.DurationSeconds,
		Width:           a.Width,
		Height:          a.Height,
		FileSizeBytes:   a.FileSizeBytes,
		Tags: usecase.TagSets{
			Emotion:   a.EmotionTags,
			Reaction:  a.ReactionTags,
			Situation: a.SituationTags,
			Identity:  a.IdentityTags,
			Source:    a.SourceTags,
			Object:    a.ObjectTags,
			Character: a.CharacterTags,
			Action:    a.ActionTags,
			Color:     a.ColorTags,
			Time:      a.TimeTags,
		},
		Colors:          a.Colors,
		TagQualityScore: a.TagQualityScore,
		DownloadCount:   a.DownloadCount,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
