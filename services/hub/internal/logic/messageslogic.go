package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
	"github.com/cuihairu/keeperhub/services/hub/internal/types"
)

type MessagesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewMessagesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *MessagesLogic {
	return &MessagesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *MessagesLogic) Messages(req *types.BoardQuery) ([]types.MessageEntry, error) {
	rows, err := l.svcCtx.Events.ListMessages(l.ctx, req.BoardId)
	if err != nil {
		return nil, err
	}
	out := make([]types.MessageEntry, 0, len(rows))
	for _, m := range rows {
		out = append(out, types.MessageEntry{Author: m.Author, Text: m.Text})
	}
	return out, nil
}
