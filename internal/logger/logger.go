package logger

import (
	"go.uber.org/zap"

	"github.com/openlingo/openlingo/internal/config"
)

func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == config.EnvProduction {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}
