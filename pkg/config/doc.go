// Package config loads and validates the settings of a gridxfer run.
//
// Settings come from, in increasing priority: built-in defaults, a config file, GRIDXFER_*
// environment variables and command-line flags. A YAML config looks like:
//
//	source: /data/run1
//	destination: s3://grid-bucket/run1/
//	storage_element: SE-PRIMARY
//	lfn_root: /lfn/experiment/run1/
//	output_log: run1.transfers
//	exclude:
//	  - "*.tmp"
//	catalogue:
//	  driver: postgres
//	  dsn: postgres://catalogue@db/grid?sslmode=disable
//	s3:
//	  region: us-east-1
//
// and the HCL equivalent uses the same attribute names with catalogue and s3 as blocks.
//
// Validate reports every precondition of the selected workflow as a single *ConfigError
// before any storage or catalogue is touched.
package config
