// Package config provides configuration loading and validation for the
// closureme-mirror tool.
//
// The package handles JSON or YAML configuration files, environment
// variables, and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - config.json in the working directory unless files are given
//  3. Environment variables (CLOSUREME_ prefix, plus the bare names below)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.json"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// Every key maps to a CLOSUREME_ variable:
//   - memory_download_dir → CLOSUREME_MEMORY_DOWNLOAD_DIR
//   - storage.bucket → CLOSUREME_STORAGE_BUCKET
//
// These bare names are also honoured:
//   - API_URL → api_url
//   - AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY → storage.access_key, storage.secret_key
//   - AWS_S3_BUCKET → storage.bucket
//   - AWS_REGION → storage.region
//
// # Validation
//
//   - storage.backend must be s3 or stowry; stowry needs storage.endpoint
//   - ledger.type must be sqlite or postgres
//   - log.level must be debug, info, warn, or error
package config
