package logic

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
	"github.com/cuihairu/keeperhub/services/hub/internal/types"
)

var ErrInvalidVersion = errors.New("version must be an integer")

// ParseVersion turns an optional version query value into a filter.
func ParseVersion(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, ErrInvalidVersion
	}
	return &v, nil
}

// RetiredID is the identifier events use for a stored artifact.
func RetiredID(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

type CatalogLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCatalogLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CatalogLogic {
	return &CatalogLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CatalogLogic) Games(req *types.VersionQuery) ([]types.GameEntry, error) {
	version, err := ParseVersion(req.Version)
	if err != nil {
		return nil, err
	}
	games, err := l.svcCtx.Retired.ListGames(l.ctx, version)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = RetiredID(g.Filename)
	}
	stats, err := l.svcCtx.Events.StatsByRetiredID(l.ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.GameEntry, 0, len(games))
	for i, g := range games {
		st := stats[ids[i]]
		out = append(out, types.GameEntry{
			Filename:    g.Filename,
			DisplayName: g.DisplayName,
			Version:     g.Version,
			UploadTime:  g.Timestamp.Unix(),
			WonGames:    st.Conquered,
			TotalGames:  st.Loaded,
		})
	}
	return out, nil
}

func (l *CatalogLogic) Sites(req *types.VersionQuery) ([]types.SiteEntry, error) {
	version, err := ParseVersion(req.Version)
	if err != nil {
		return nil, err
	}
	sites, err := l.svcCtx.Retired.ListSites(l.ctx, version)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(sites))
	for i, s := range sites {
		ids[i] = RetiredID(s.Filename)
	}
	stats, err := l.svcCtx.Events.StatsByRetiredID(l.ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.SiteEntry, 0, len(sites))
	for i, s := range sites {
		st := stats[ids[i]]
		out = append(out, types.SiteEntry{
			Filename:   s.Filename,
			UploadTime: s.Timestamp.Unix(),
			WonGames:   st.Conquered,
			TotalGames: st.Loaded,
			SaveInfo:   s.SaveInfo,
			Version:    s.Version,
		})
	}
	return out, nil
}
