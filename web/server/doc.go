// Package server runs an HTTP handler until its context ends, then
// drains in-flight requests and runs cleanup hooks in order.
//
// Typical use ties the context to process signals:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := server.New(app, server.WithHost(":8081"))
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
