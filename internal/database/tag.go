package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/clipstash/clipstash/internal/usecase"
)

type TagSuggestion struct {
	Category   string    `gorm:"column:category;primaryKey;type:varchar(20)"`
	Tag        string    `gorm:"column:tag;primaryKey;type:varchar(100)"`
	UsageCount int       `gorm:"column:usage_count;type:int;not null;index"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (TagSuggestion) TableName() string {
	return "tag_suggestions"
}

func (s *service) ListPopularTags(ctx context.Context, opt usecase.ListPopularTagsOption) ([]usecase.TagCount, error) {
	var rows []TagSuggestion

	db := s.db.WithContext(ctx).Model(&TagSuggestion{})
	if opt.Category != "" {
		db = db.Where("category = ?", opt.Category)
	}

	err := db.
		Order("usage_count DESC, tag ASC").
		Limit(opt.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, &usecase.StoreError{Op: "list popular tags", Err: err}
	}

	tags := make([]usecase.TagCount, 0, len(rows))
	for _, r := range rows {
		tags = append(tags, usecase.TagCount{
			Category:   r.Category,
			Tag:        r.Tag,
			UsageCount: r.UsageCount,
		})
	}
	return tags, nil
}

// SyncTagUsage rebuilds tag_suggestions from the tag columns on assets.
// Full rebuild in one transaction: counts are small (one row per distinct
// tag) and a rebuild never drifts the way incremental counters do.
func (s *service) SyncTagUsage(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM tag_suggestions`).Error; err != nil {
			return err
		}
		for i, category := range usecase.TagCategories {
			stmt := fmt.Sprintf(`
				INSERT INTO tag_suggestions (category, tag, usage_count, updated_at)
				SELECT ?, t.tag, count(*), now()
				FROM assets a, jsonb_array_elements_text(a.%s) AS t(tag)
				GROUP BY t.tag`, tagColumns[i])
			if err := tx.Exec(stmt, category).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &usecase.StoreError{Op: "sync tag usage", Err: err}
	}
	return nil
}
