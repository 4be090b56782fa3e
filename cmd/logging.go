package cmd

import (
	"github.com/achilleasa/prism/log"
	"github.com/urfave/cli"
)

var logger = log.New("prism")

func setupLogging(ctx *cli.Context) {
	if name := ctx.GlobalString("log-level"); name != "" {
		level, ok := log.ParseLevel(name)
		if !ok {
			logger.Warningf("unknown log level %q; using notice", name)
		}
		log.SetLevel(level)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
