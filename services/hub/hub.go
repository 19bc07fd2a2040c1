package main

import (
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"

	"github.com/cuihairu/keeperhub/internal/cli/common"
	"github.com/cuihairu/keeperhub/services/hub/internal/config"
	"github.com/cuihairu/keeperhub/services/hub/internal/handler"
	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
)

var configFile = flag.String("f", "etc/hub.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c, conf.UseEnv())

	server := rest.MustNewServer(c.RestConf)
	defer server.Stop()

	// after the server so the rotating sink replaces logx's console writer
	if c.AppLog.File != "" {
		common.SetupLogger(c.AppLog)
	}

	ctx := svc.MustNewServiceContext(c)
	defer ctx.Close()
	handler.RegisterHandlers(server, ctx)

	fmt.Printf("Starting hub server at %s:%d...\n", c.Host, c.Port)
	server.Start()
}
