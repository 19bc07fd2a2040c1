package types

type VersionQuery struct {
	Version string `form:"version,optional"`
}

type BoardQuery struct {
	BoardId int `form:"boardId"`
}

type DownloadRequest struct {
	Filename string `path:"filename"`
}

type GameEntry struct {
	Filename    string
	DisplayName string
	Version     int
	UploadTime  int64
	WonGames    int64
	TotalGames  int64
}

type SiteEntry struct {
	Filename   string
	UploadTime int64
	WonGames   int64
	TotalGames int64
	SaveInfo   string
	Version    int
}

type HighscoreEntry struct {
	GameId     string
	PlayerName string
	WorldName  string
	GameResult string
	GameWon    int
	Points     int
	Turns      int
	GameType   string
	PlayerRole string
}

type MessageEntry struct {
	Author string
	Text   string
}
