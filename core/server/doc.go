// Package server runs an http.Handler, typically a dispatch.Dispatcher, with
// production timeouts and graceful shutdown.
//
// Run returns a function for errgroup so the server stops when the group's
// context is cancelled:
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	eg, ctx := errgroup.WithContext(ctx)
//	eg.Go(srv.Run(ctx, dispatcher))
//	return eg.Wait()
//
// Configuration is read from SERVER_* environment variables via Config. TLS is
// enabled when both SERVER_TLS_CERT_FILE and SERVER_TLS_KEY_FILE are set.
package server
