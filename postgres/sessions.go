package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/xy-planning-network/waypoint/http/session"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A SessionRecord is a row of the sessions table.
type SessionRecord struct {
	ID        string `gorm:"primaryKey"`
	Body      []byte `gorm:"type:jsonb"`
	LastCheck time.Time
	UpdatedAt time.Time
}

func (SessionRecord) TableName() string { return "sessions" }

// SessionFuncs constructs session.Funcs storing session Bodies in the sessions table.
func SessionFuncs(db *gorm.DB) session.Funcs {
	return session.Funcs{
		Get: func(ctx context.Context, id string) (*session.Body, error) {
			var rec SessionRecord
			err := db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}

			if err != nil {
				return nil, err
			}

			b := new(session.Body)
			if err := json.Unmarshal(rec.Body, b); err != nil {
				return nil, err
			}

			return b, nil
		},
		Save: func(ctx context.Context, id string, body *session.Body) error {
			raw, err := json.Marshal(body)
			if err != nil {
				return err
			}

			rec := SessionRecord{ID: id, Body: raw, LastCheck: body.LastCheck}
			return db.WithContext(ctx).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"body", "last_check", "updated_at"}),
			}).Create(&rec).Error
		},
		Delete: func(ctx context.Context, id string) error {
			return db.WithContext(ctx).Where("id = ?", id).Delete(&SessionRecord{}).Error
		},
		Expire: func(ctx context.Context, olderThan time.Time) (int, error) {
			res := db.WithContext(ctx).Where("last_check < ?", olderThan).Delete(&SessionRecord{})
			return int(res.RowsAffected), res.Error
		},
	}
}
