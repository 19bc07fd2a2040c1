package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
)

type GameEventLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGameEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GameEventLogic {
	return &GameEventLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GameEvent records the event named by fields["eventType"].
func (l *GameEventLogic) GameEvent(fields map[string]string) error {
	typ := fields["eventType"]
	recorded, err := l.svcCtx.Recorder.Record(l.ctx, typ, fields)
	if err != nil {
		l.Errorf("event %q: %v", typ, err)
		return err
	}
	if recorded {
		l.Debugf("event %q recorded for game %q", typ, fields["gameId"])
	}
	return nil
}
