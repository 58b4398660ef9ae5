package main

import (
	"context"
	"errors"
	"log"

	"github.com/groupmarket/groupbot/core/cmd"
	"github.com/groupmarket/groupbot/internal/app"
	"github.com/groupmarket/groupbot/internal/config"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			return app.Bootstrap(carrier.(*config.Config))
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
