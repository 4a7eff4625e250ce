package sqldb

import (
	"alcyxob/coaching-platform/internal/domain"
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type defaultsRepository struct {
	db *gorm.DB
}

func (r *defaultsRepository) Get(ctx context.Context, kind domain.DefaultsKind, language string) (*domain.Defaults, error) {
	var row defaultsRow
	if err := r.db.WithContext(ctx).Where("kind = ? AND language = ?", string(kind), language).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

// Upsert relies on the (kind, language) primary key: concurrent writers
// serialize on it and the last one's data stays.
func (r *defaultsRepository) Upsert(ctx context.Context, defaults *domain.Defaults) error {
	now := time.Now().UTC()
	row := defaultsRow{
		Kind:      string(defaults.Kind),
		Language:  defaults.Language,
		Data:      datatypes.JSON(defaults.Data),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "language"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return err
	}
	defaults.UpdatedAt = now
	return nil
}
