package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"text2phenotype.com/sdoh/cli"
	"text2phenotype.com/sdoh/logger"
)

func main() {
	logger.SetupLogging()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		cliLogger := logger.NewLogger("screenctl")
		cliLogger.Warn().Err(err).Msg("Could not read .env file")
	}
	if err := cli.NewRootCommand(cli.DefaultDependencies()).Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
