package retiredgorm

import "time"

// RetiredGame is an uploaded game save that other players can load.
// Filename is the stored artifact's key.
type RetiredGame struct {
	ID          uint      `gorm:"primaryKey"`
	Filename    string    `gorm:"size:255;uniqueIndex;not null"`
	DisplayName string    `gorm:"size:255"`
	Version     int       `gorm:"index"`
	Timestamp   time.Time `gorm:"autoCreateTime"`
}

func (RetiredGame) TableName() string { return "retired_games" }

// RetiredSite is an uploaded retired site. SaveInfo is the parser's
// serialized game info, stored verbatim.
type RetiredSite struct {
	ID          uint      `gorm:"primaryKey"`
	Filename    string    `gorm:"size:255;uniqueIndex;not null"`
	DisplayName string    `gorm:"size:255"`
	SaveInfo    string    `gorm:"type:text"`
	Version     int       `gorm:"index"`
	Timestamp   time.Time `gorm:"autoCreateTime"`
}

func (RetiredSite) TableName() string { return "retired_sites" }
