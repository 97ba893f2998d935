package httpapi

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"talent-pipeline/internal/config"
	"talent-pipeline/internal/events"
	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/store"
)

// Runner triggers pipeline runs. *pipeline.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
	Status() pipeline.Status
}

type Deps struct {
	Store *store.DB
	Hub   *events.Hub

	Runner Runner

	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Log *logrus.Entry
}
