// Package bundle provides page components stored as static fragments.
//
// A Bundle is the component type the HTTP host renders. Layout bundles mark
// where their child goes with OutletMarker:
//
//	<main class="home"><!--outlet--></main>
//
// Bundles come from an S3 bucket (S3Source) or a local file system
// (DirSource). Both hand out deferred.Loaders, so they plug directly into
// manifest resolution:
//
//	src := bundle.NewS3Source(client, "site-bundles", "pages/")
//	resolver.Register("s3", func(ref string) (deferred.Loader, error) {
//	    return src.Loader(ref), nil
//	})
package bundle
