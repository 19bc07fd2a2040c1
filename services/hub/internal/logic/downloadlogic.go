package logic

import (
	"context"
	"io"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cuihairu/keeperhub/internal/ingest"
	"github.com/cuihairu/keeperhub/internal/objstore"
	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
	"github.com/cuihairu/keeperhub/services/hub/internal/types"
)

type DownloadLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDownloadLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DownloadLogic {
	return &DownloadLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Download returns either a redirect URL or the artifact stream.
// A name that is not a plain stored key yields objstore.ErrNotFound.
func (l *DownloadLogic) Download(req *types.DownloadRequest) (redirect string, body io.ReadCloser, err error) {
	key := ingest.Basename(req.Filename)
	if key == "" || key != req.Filename {
		return "", nil, objstore.ErrNotFound
	}
	if l.svcCtx.Config.Storage.RedirectDownloads {
		ok, err := l.svcCtx.Store.Exists(l.ctx, key)
		if err != nil {
			return "", nil, err
		}
		if !ok {
			return "", nil, objstore.ErrNotFound
		}
		u, err := l.svcCtx.Store.SignedURL(l.ctx, key, http.MethodGet, l.svcCtx.Config.Storage.SignedURLTTL)
		return u, nil, err
	}
	rc, err := l.svcCtx.Store.Open(l.ctx, key)
	if err != nil {
		return "", nil, err
	}
	return "", rc, nil
}
