// Command neeprokriti serves the NeeProkriti product catalog over HTTP.
package main

import (
	"github.com/neeprokriti/catalog-server/pkg/app"
	"github.com/neeprokriti/catalog-server/pkg/cli"
)

func main() {
	cmd := cli.NewServiceCommand(cli.ServiceCommandOptions{
		Name:              "neeprokriti-catalog",
		Description:       "NeeProkriti product catalog API backed by MongoDB",
		EnvPrefix:         "APP",
		RunServer:         app.Run,
		CheckDependencies: app.CheckDependencies,
		RegisterRoutes:    app.RegisterRoutes,
	})
	cli.Execute(cmd)
}
