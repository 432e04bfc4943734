//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/clearday/internal/bootstrap"
	"github.com/yanqian/clearday/internal/domain/auth"
	"github.com/yanqian/clearday/internal/domain/briefing"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/internal/domain/dashboard"
	"github.com/yanqian/clearday/internal/domain/forecast"
	"github.com/yanqian/clearday/internal/domain/profile"
	"github.com/yanqian/clearday/internal/infra/config"
	httpiface "github.com/yanqian/clearday/internal/interface/http"
	"github.com/yanqian/clearday/pkg/logger"
	"github.com/yanqian/clearday/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		bootstrap.NewResources,
		provideLocation,
		provideAuthConfig,
		provideForecastConfig,
		provideMetricsProvider,
		provideMetricsRecorder,
		providePostgresPool,
		provideValkeyClient,
		provideDailyLogRepository,
		provideProfileRepository,
		provideForecastCache,
		provideArchive,
		provideOpenWeatherClient,
		providePollenClient,
		providePollenSource,
		provideAirQualitySource,
		provideFeeds,
		provideNotifier,
		provideObservationSink,
		wire.Bind(new(dailylog.MergeObserver), new(*metrics.Recorder)),
		wire.Bind(new(dashboard.Metrics), new(*metrics.Recorder)),
		wire.Bind(new(forecast.Metrics), new(*metrics.Recorder)),
		dailylog.NewService,
		profile.NewService,
		dashboard.NewService,
		forecast.NewService,
		briefing.NewService,
		auth.NewService,
		wire.Struct(new(httpiface.Services), "*"),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
