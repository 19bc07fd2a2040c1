package retiredgorm

import (
	"context"

	"gorm.io/gorm"
)

// Repo persists retired games and sites.
type Repo struct{ db *gorm.DB }

func AutoMigrate(db *gorm.DB) error { return db.AutoMigrate(&RetiredGame{}, &RetiredSite{}) }
func NewRepo(db *gorm.DB) *Repo     { return &Repo{db: db} }

func (r *Repo) CreateGame(ctx context.Context, g *RetiredGame) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *Repo) CreateSite(ctx context.Context, s *RetiredSite) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// ListGames returns games ordered by upload time; version filters when non-nil.
func (r *Repo) ListGames(ctx context.Context, version *int) ([]*RetiredGame, error) {
	q := r.db.WithContext(ctx).Model(&RetiredGame{})
	if version != nil {
		q = q.Where("version = ?", *version)
	}
	var out []*RetiredGame
	if err := q.Order("timestamp ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListSites(ctx context.Context, version *int) ([]*RetiredSite, error) {
	q := r.db.WithContext(ctx).Model(&RetiredSite{})
	if version != nil {
		q = q.Where("version = ?", *version)
	}
	var out []*RetiredSite
	if err := q.Order("filename ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GameExists(ctx context.Context, filename string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&RetiredGame{}).Where("filename = ?", filename).Count(&n).Error
	return n > 0, err
}

func (r *Repo) SiteExists(ctx context.Context, filename string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&RetiredSite{}).Where("filename = ?", filename).Count(&n).Error
	return n > 0, err
}
