// Package services provides the business logic behind the HTTP and WebSocket
// transports.
//
// ChartService runs the pipeline for one upload: ingest and normalize the
// file, validate a chart request, build a plan and render it. Every call opens
// a span, records metrics and logs through the injected slog logger. Stateless
// HTTP requests re-evaluate from the uploaded bytes each time; WebSocket
// sessions keep a session.ViewState and call Apply for each event.
//
// HealthService reports liveness, readiness and version information together
// with the number of open sessions.
//
// Services receive their collaborators through constructors and never reach
// for globals:
//
//	svc := services.NewChartService(services.ChartServiceOptions{
//		Chart:   cfg.Chart,
//		Upload:  cfg.Upload,
//		Tracer:  providers.Tracer,
//		Metrics: metrics,
//		Logger:  logger,
//	})
package services
