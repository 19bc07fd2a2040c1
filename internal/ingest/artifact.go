package ingest

// Artifact is the kind of file a client uploads.
type Artifact int

const (
	GameSave Artifact = iota + 1
	SiteSave
	// ScoreFile is a small text file of already comma-delimited score rows.
	ScoreFile
	// HighscoreFile is a raw game file the parser extracts scores from.
	HighscoreFile
)

func (a Artifact) String() string {
	switch a {
	case GameSave:
		return "game_save"
	case SiteSave:
		return "site_save"
	case ScoreFile:
		return "score_file"
	case HighscoreFile:
		return "highscore_file"
	}
	return "unknown"
}

// Rule is what the validator enforces for one artifact kind.
type Rule struct {
	MaxBytes int64
	// Extension is matched case-sensitively against the filename suffix;
	// empty skips the check.
	Extension string
	// Retained artifacts are stored under their basename and must not
	// already exist.
	Retained         bool
	WrongTypeMessage string
}

// Limits are the per-kind size ceilings in bytes.
type Limits struct {
	GameSave      int64
	SiteSave      int64
	ScoreFile     int64
	HighscoreFile int64
}

func DefaultLimits() Limits {
	return Limits{
		GameSave:      10000000,
		SiteSave:      5000000,
		ScoreFile:     100000,
		HighscoreFile: 10000000,
	}
}

// Rules builds the rule table for l. Zero limits fall back to the defaults.
func Rules(l Limits) map[Artifact]Rule {
	d := DefaultLimits()
	pick := func(v, def int64) int64 {
		if v > 0 {
			return v
		}
		return def
	}
	return map[Artifact]Rule{
		GameSave:      {MaxBytes: pick(l.GameSave, d.GameSave), Extension: ".ret", Retained: true, WrongTypeMessage: MsgWrongGameType},
		SiteSave:      {MaxBytes: pick(l.SiteSave, d.SiteSave), Extension: ".sit", Retained: true, WrongTypeMessage: MsgWrongSiteType},
		ScoreFile:     {MaxBytes: pick(l.ScoreFile, d.ScoreFile)},
		HighscoreFile: {MaxBytes: pick(l.HighscoreFile, d.HighscoreFile)},
	}
}
