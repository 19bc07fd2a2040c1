package scoresgorm

import "time"

// Highscore is one finished game reported by a client. GameWon is 0 or 1.
type Highscore struct {
	ID         uint   `gorm:"primaryKey"`
	GameID     string `gorm:"size:255;index"`
	PlayerName string `gorm:"size:255"`
	WorldName  string `gorm:"size:255"`
	GameResult string `gorm:"size:255"`
	GameWon    int
	Points     int `gorm:"index"`
	Turns      int
	GameType   string `gorm:"size:64"`
	PlayerRole string `gorm:"size:64"`
	Version    int    `gorm:"index"`
	CreatedAt  time.Time
}

func (Highscore) TableName() string { return "highscores" }
