package sqldb

import (
	"context"

	"alcyxob/coaching-platform/internal/domain"
)

// CountDefaultsRows returns how many rows are stored for (kind, language).
func CountDefaultsRows(ctx context.Context, c *Client, kind domain.DefaultsKind, language string) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&defaultsRow{}).
		Where("kind = ? AND language = ?", string(kind), language).
		Count(&n).Error
	return n, err
}
