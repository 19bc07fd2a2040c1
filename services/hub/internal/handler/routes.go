package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(Routes(serverCtx))
}

// Routes keeps the paths game clients already call.
func Routes(serverCtx *svc.ServiceContext) []rest.Route {
	return []rest.Route{
		{
			Method:  http.MethodPost,
			Path:    "/upload.php",
			Handler: UploadHandler(serverCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/upload_site.php",
			Handler: UploadSiteHandler(serverCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/upload_scores.php",
			Handler: UploadScoresHandler(serverCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/upload_highscores.php",
			Handler: UploadHighscoresHandler(serverCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/game_event.php",
			Handler: GameEventHandler(serverCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/get_games.php",
			Handler: GetGamesHandler(serverCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/get_sites.php",
			Handler: GetSitesHandler(serverCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/get_highscores.php",
			Handler: GetHighscoresHandler(serverCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/get_messages.php",
			Handler: GetMessagesHandler(serverCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/uploads/:filename",
			Handler: DownloadHandler(serverCtx),
		},
	}
}
