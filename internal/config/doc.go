// Package config loads pageroutes.json, the project configuration read by
// the pageroutes CLI.
//
// # Configuration File Structure
//
//	{
//	  "pages": {
//	    "dir": "pages",
//	    "rootPrefix": "/pages/",
//	    "marker": "$",
//	    "extensions": [".html"]
//	  },
//	  "manifest": {
//	    "output": "pageroutes.manifest.json",
//	    "package": "pages"
//	  },
//	  "server": {
//	    "host": "localhost",
//	    "port": 3000,
//	    "loadTimeout": "2s",
//	    "metricsPath": "/metrics",
//	    "livePath": "/_live"
//	  },
//	  "bundle": {
//	    "bucket": "site-bundles",
//	    "prefix": "pages/"
//	  },
//	  "metrics": {
//	    "namespace": "pageroutes"
//	  }
//	}
//
// Fields left out keep the defaults from New.
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Serving on", cfg.Address())
package config
