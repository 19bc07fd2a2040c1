package eventsgorm

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&RetiredConquered{}, &RetiredLoaded{}, &Turn{}, &CampaignStarted{}, &SingleStarted{}, &Message{})
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// Insert appends one event row. rec must be a pointer to one of the models
// in this package.
func (r *Repo) Insert(ctx context.Context, rec any) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListMessages returns a board's posts in the order they were written.
func (r *Repo) ListMessages(ctx context.Context, boardID int) ([]*Message, error) {
	var out []*Message
	err := r.db.WithContext(ctx).Where("board_id = ?", boardID).Order("id ASC").Find(&out).Error
	return out, err
}

// RetiredStats holds per-retired-id counters.
type RetiredStats struct {
	Conquered int64
	Loaded    int64
}

// StatsByRetiredID counts conquered and loaded events for each id.
func (r *Repo) StatsByRetiredID(ctx context.Context, ids []string) (map[string]RetiredStats, error) {
	out := make(map[string]RetiredStats, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	type row struct {
		RetiredID string
		N         int64
	}
	var conquered, loaded []row
	if err := r.db.WithContext(ctx).Model(&RetiredConquered{}).
		Select("retired_id, COUNT(DISTINCT id) AS n").
		Where("retired_id IN ?", ids).Group("retired_id").Scan(&conquered).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&RetiredLoaded{}).
		Select("retired_id, COUNT(DISTINCT id) AS n").
		Where("retired_id IN ?", ids).Group("retired_id").Scan(&loaded).Error; err != nil {
		return nil, err
	}
	for _, c := range conquered {
		s := out[c.RetiredID]
		s.Conquered = c.N
		out[c.RetiredID] = s
	}
	for _, l := range loaded {
		s := out[l.RetiredID]
		s.Loaded = l.N
		out[l.RetiredID] = s
	}
	return out, nil
}
