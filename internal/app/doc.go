// Package app wires the credit portfolio dashboard together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, optional YAML file, environment)
//  2. Initialize logging and OpenTelemetry
//  3. Resolve and create the data, exports and logs directories
//  4. Create the WebSocket hub, the dashboard service and the health service
//  5. Mount handlers and middleware on a chi router
//  6. Preload the newest portfolio file from the data directory, if any
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns once ctx is cancelled or the process receives SIGINT or SIGTERM.
// The HTTP server drains within Server.ShutdownTimeout, WebSocket clients are
// closed and the telemetry providers are flushed.
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
