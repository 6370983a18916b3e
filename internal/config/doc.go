// Package config provides configuration parsing for humus servers.
//
// The configuration is stored in humus.json. This package handles loading,
// saving, defaulting and validating it.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 7070,
//	    "writeTimeout": "10s",
//	    "sendQueue": 16
//	  },
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  },
//	  "session": {
//	    "validate": true
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "humus"
//	  },
//	  "snapshot": {
//	    "backend": "s3",
//	    "bucket": "humus-snapshots",
//	    "region": "eu-central-1",
//	    "prefix": "demo/"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
