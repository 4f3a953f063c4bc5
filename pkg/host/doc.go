// Package host serves a compiled route tree over HTTP with chi.
//
//	nodes, err := pageroute.CompileRoutes(bindings)
//	if err != nil {
//	    return err
//	}
//	r := chi.NewRouter()
//	r.Use(host.Canonical)
//	h, err := host.Mount(r, nodes,
//	    host.WithLoadTimeout(2*time.Second),
//	    host.WithMetrics("/metrics", registry),
//	    host.WithRequestMetrics(host.NewRequestMetrics(registry, "site")),
//	    host.WithLiveHub("/_live", host.NewLiveHub(logger, nil)),
//	)
//
// Every page becomes one chi route; "/user/:id" is registered as
// "/user/{id}". Layouts wrap their children through the outlet passed to
// View.Render. Components that are not Views are written as text, followed
// by their child.
//
// Canonical redirects "/user//42/" to "/user/42" before routing, so one
// page has one URL.
//
// The live hub sends {"type":"state","element":...,"state":...} whenever a
// mounted element becomes Ready or Failed, and {"type":"reload"} after the
// dev watcher rebuilds the tree.
package host
