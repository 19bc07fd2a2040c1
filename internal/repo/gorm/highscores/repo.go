package scoresgorm

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func AutoMigrate(db *gorm.DB) error { return db.AutoMigrate(&Highscore{}) }
func NewRepo(db *gorm.DB) *Repo     { return &Repo{db: db} }

func (r *Repo) Create(ctx context.Context, h *Highscore) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// List returns the leaderboard, best first.
func (r *Repo) List(ctx context.Context, version *int) ([]*Highscore, error) {
	q := r.db.WithContext(ctx).Model(&Highscore{})
	if version != nil {
		q = q.Where("version = ?", *version)
	}
	var out []*Highscore
	if err := q.Order("points DESC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Highscore{}).Count(&n).Error
	return n, err
}
