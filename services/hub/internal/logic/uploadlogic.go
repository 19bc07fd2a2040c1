package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cuihairu/keeperhub/internal/ingest"
	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
)

type UploadLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUploadLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UploadLogic {
	return &UploadLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UploadLogic) UploadGame(f ingest.File) error {
	row, err := l.svcCtx.Pipeline.IngestGameSave(l.ctx, f)
	if err != nil {
		l.Infof("game save %q rejected: %v", f.Name, err)
		return err
	}
	l.Infof("game save %q stored as %q (version %d)", row.DisplayName, row.Filename, row.Version)
	return nil
}

func (l *UploadLogic) UploadSite(f ingest.File) error {
	row, err := l.svcCtx.Pipeline.IngestSiteSave(l.ctx, f)
	if err != nil {
		l.Infof("site save %q rejected: %v", f.Name, err)
		return err
	}
	l.Infof("site save %q stored as %q (version %d)", row.DisplayName, row.Filename, row.Version)
	return nil
}

func (l *UploadLogic) UploadScores(f ingest.File) error {
	res, err := l.svcCtx.Pipeline.IngestScoreFile(l.ctx, f)
	l.Infof("score file: %s", res)
	return err
}

func (l *UploadLogic) UploadHighscores(f ingest.File) error {
	res, err := l.svcCtx.Pipeline.IngestHighscoreFile(l.ctx, f)
	l.Infof("highscore file: %s", res)
	return err
}
