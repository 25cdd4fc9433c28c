package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"slotkeeper/config"
	"slotkeeper/helper"
	"slotkeeper/shared/logger"
)

const (
	argLength = 2
)

func main() {
	cfg := config.Get()

	logger.InitLogger(cfg)

	if len(os.Args) < argLength {
		log.Fatal().Msg("Migration direction is required: " + usage())
	}

	if err := helper.Runner(cfg, os.Args[1]); err != nil {
		log.Fatal().Err(err).Msg("Migration failed, use " + usage())
	}
}

func usage() string {
	return strings.Join([]string{helper.ActionUp, helper.ActionDown, helper.ActionDrop, helper.ActionStepUp}, ", ")
}
