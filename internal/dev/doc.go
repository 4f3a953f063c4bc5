// Package dev wires the pageroutes CLI together: it scans the pages
// directory into a manifest, compiles and mounts the route tree, and
// rebuilds it when files change.
//
//	srv := dev.NewServer(dev.ServerOptions{
//	    Config:   cfg,
//	    Resolver: resolver,
//	    Source: func() (*manifest.Manifest, error) {
//	        m, _, err := dev.Generate(cfg)
//	        return m, err
//	    },
//	    Live: host.NewLiveHub(logger, nil),
//	})
//	if err := srv.Build(); err != nil {
//	    return err
//	}
//	go srv.Watch(ctx)
//	http.ListenAndServe(cfg.Address(), srv)
//
// The watcher uses fsnotify and batches events that arrive within the
// debounce window into a single rebuild. A failed rebuild leaves the previous
// tree serving.
package dev
