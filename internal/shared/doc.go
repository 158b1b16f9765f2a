// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides a capturing slog handler and portfolio
// record fixtures for package tests:
//
//	logger, handler := testutil.NewTestLogger(t)
//	svc := services.NewDashboardService(cfg, nil, nil, nil, logger)
//	_, err := svc.LoadPath(ctx, testutil.WritePortfolioCSV(t))
//	testutil.AssertLogContains(t, handler, slog.LevelInfo, "dataset loaded")
//
// Nothing in this package carries business logic.
package shared
