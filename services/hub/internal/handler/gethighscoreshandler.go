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

func GetHighscoresHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.VersionQuery
		if err := httpx.Parse(r, &req); err != nil {
			badRequest(w, err)
			return
		}

		l := logic.NewHighscoresLogic(r.Context(), svcCtx)
		rows, err := l.Highscores(&req)
		if err != nil {
			writeError(r, w, err)
			return
		}
		lines := make([]string, 0, len(rows))
		for _, h := range rows {
			lines = append(lines, textenc.Line(
				textenc.Field(h.GameId),
				textenc.Field(h.PlayerName),
				textenc.Field(h.WorldName),
				textenc.Field(h.GameResult),
				strconv.Itoa(h.GameWon),
				strconv.Itoa(h.Points),
				strconv.Itoa(h.Turns),
				textenc.Field(h.GameType),
				textenc.Field(h.PlayerRole),
			))
		}
		writeLines(w, lines)
	}
}
