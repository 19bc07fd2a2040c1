package eventsgorm

import "time"

type RetiredConquered struct {
	ID         uint   `gorm:"primaryKey"`
	GameID     string `gorm:"size:255;index"`
	RetiredID  string `gorm:"size:255;index"`
	PlayerName string `gorm:"size:255"`
	CreatedAt  time.Time
}

func (RetiredConquered) TableName() string { return "event_retired_conquered" }

type RetiredLoaded struct {
	ID         uint   `gorm:"primaryKey"`
	GameID     string `gorm:"size:255;index"`
	RetiredID  string `gorm:"size:255;index"`
	PlayerName string `gorm:"size:255"`
	CreatedAt  time.Time
}

func (RetiredLoaded) TableName() string { return "event_retired_loaded" }

type Turn struct {
	ID        uint   `gorm:"primaryKey"`
	GameID    string `gorm:"size:255;index"`
	Turn      int
	CreatedAt time.Time
}

func (Turn) TableName() string { return "event_turn" }

// CampaignStarted counts the villains of each kind the campaign was set up with.
type CampaignStarted struct {
	ID         uint   `gorm:"primaryKey"`
	GameID     string `gorm:"size:255;index"`
	Main       int
	Lesser     int
	Allies     int
	Retired    int
	InstallID  string `gorm:"size:255"`
	GameType   string `gorm:"size:64"`
	PlayerRole string `gorm:"size:64"`
	CreatedAt  time.Time
}

func (CampaignStarted) TableName() string { return "event_campaign_started" }

type SingleStarted struct {
	ID        uint   `gorm:"primaryKey"`
	GameID    string `gorm:"size:255;index"`
	InstallID string `gorm:"size:255"`
	CreatedAt time.Time
}

func (SingleStarted) TableName() string { return "event_single_started" }

// Message is a post on an in-game message board.
type Message struct {
	ID        uint   `gorm:"primaryKey"`
	GameID    string `gorm:"size:255;index"`
	BoardID   int    `gorm:"index"`
	Author    string `gorm:"size:255"`
	Text      string `gorm:"type:text"`
	CreatedAt time.Time
}

func (Message) TableName() string { return "event_message" }
