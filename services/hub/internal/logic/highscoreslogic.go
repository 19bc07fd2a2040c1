package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
	"github.com/cuihairu/keeperhub/services/hub/internal/types"
)

type HighscoresLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewHighscoresLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HighscoresLogic {
	return &HighscoresLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *HighscoresLogic) Highscores(req *types.VersionQuery) ([]types.HighscoreEntry, error) {
	version, err := ParseVersion(req.Version)
	if err != nil {
		return nil, err
	}
	rows, err := l.svcCtx.Scores.List(l.ctx, version)
	if err != nil {
		return nil, err
	}
	out := make([]types.HighscoreEntry, 0, len(rows))
	for _, h := range rows {
		out = append(out, types.HighscoreEntry{
			GameId:     h.GameID,
			PlayerName: h.PlayerName,
			WorldName:  h.WorldName,
			GameResult: h.GameResult,
			GameWon:    h.GameWon,
			Points:     h.Points,
			Turns:      h.Turns,
			GameType:   h.GameType,
			PlayerRole: h.PlayerRole,
		})
	}
	return out, nil
}
