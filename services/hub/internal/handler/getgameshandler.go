package handler

import (
	"net/http"
	"strconv"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/cuihairu/keeperhub/internal/textenc"
	"github.com/cuihairu/keeperhub/services/hub/internal/logic"
	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
	"github.com/cuihairu/keeperhub/services/hub/internal/types"
)

// GetGamesHandler lists retired games as
// filename,display_name,version,upload_unix_time,won_games,total_games.
func GetGamesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.VersionQuery
		if err := httpx.Parse(r, &req); err != nil {
			badRequest(w, err)
			return
		}

		l := logic.NewCatalogLogic(r.Context(), svcCtx)
		games, err := l.Games(&req)
		if err != nil {
			writeError(r, w, err)
			return
		}
		lines := make([]string, 0, len(games))
		for _, g := range games {
			lines = append(lines, textenc.Line(
				textenc.Field(g.Filename),
				textenc.Field(g.DisplayName),
				strconv.Itoa(g.Version),
				strconv.FormatInt(g.UploadTime, 10),
				strconv.FormatInt(g.WonGames, 10),
				strconv.FormatInt(g.TotalGames, 10),
			))
		}
		writeLines(w, lines)
	}
}
