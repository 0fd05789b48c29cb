package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clipstash/clipstash/internal/usecase"
)

type Collection struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Name      string    `gorm:"column:name;type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	Assets []CollectionAsset `gorm:"foreignKey:CollectionID;references:ID"`
}

func (Collection) TableName() string {
	return "collections"
}

type CollectionAsset struct {
	ID           uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	CollectionID uuid.UUID `gorm:"column:collection_id;type:uuid;not null;uniqueIndex:idx_collection_asset"`
	AssetID      uuid.UUID `gorm:"column:asset_id;type:uuid;not null;uniqueIndex:idx_collection_asset"`
	Asset        *Asset    `gorm:"foreignKey:AssetID;references:ID"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (CollectionAsset) TableName() string {
	return "collection_assets"
}

func (s *service) CreateCollection(ctx context.Context, col usecase.Collection) (usecase.Collection, error) {
	c := Collection{Name: col.Name}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return usecase.Collection{}, &usecase.StoreError{Op: "create collection", Err: err}
	}
	return c.ConvertToUsecase(), nil
}

func (s *service) GetCollectionByID(ctx context.Context, id uuid.UUID) (usecase.Collection, error) {
	var c Collection
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Collection{}, &usecase.NotFoundError{Resource: "collection"}
	}
	if err != nil {
		return usecase.Collection{}, &usecase.StoreError{Op: "get collection", Err: err}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&CollectionAsset{}).
		Where("collection_id = ?", id).
		Count(&count).Error; err != nil {
		return usecase.Collection{}, &usecase.StoreError{Op: "count collection assets", Err: err}
	}

	col := c.ConvertToUsecase()
	col.AssetCount = int(count)
	return col, nil
}

// AddCollectionAssets links assets to a collection. Re-adding an existing
// member is a no-op, not an error.
func (s *service) AddCollectionAssets(ctx context.Context, id uuid.UUID, assetIDs uuid.UUIDs) error {
	rows := make([]CollectionAsset, 0, len(assetIDs))
	for _, aid := range assetIDs {
		rows = append(rows, CollectionAsset{CollectionID: id, AssetID: aid})
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return &usecase.StoreError{Op: "add collection assets", Err: err}
	}
	return nil
}

// ListCollectionAssets returns members in the order they were added.
func (s *service) ListCollectionAssets(ctx context.Context, id uuid.UUID) ([]usecase.Asset, error) {
	var links []CollectionAsset
	err := s.db.WithContext(ctx).
		Preload("Asset").
		Where("collection_id = ?", id).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, &usecase.StoreError{Op: "list collection assets", Err: err}
	}

	assets := make([]usecase.Asset, 0, len(links))
	for _, l := range links {
		if l.Asset == nil {
			continue
		}
		assets = append(assets, l.Asset.ConvertToUsecase())
	}
	return assets, nil
}

// Convert core model to Usecase
func (c Collection) ConvertToUsecase() usecase.Collection {
	return usecase.Collection{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
