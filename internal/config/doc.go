// Package config provides centralized configuration management for the
// DAPODIK sync dashboard.
//
// # Configuration Sources
//
// Configuration is resolved in three layers, later layers win:
//
//	1. Default() values
//	2. A YAML file (explicit path, $DAPODIK_CONFIG, ./config.yaml or ./configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// Variables follow the DAPODIK_<SECTION>_<FIELD> pattern:
//
//	DAPODIK_SERVER_PORT=8080
//	DAPODIK_LOGGING_LEVEL=debug
//	DAPODIK_REPORT_SHEET=Master
//	DAPODIK_REPORT_EXCLUDED_LEVELS=SMA,SMK,SLB
//	DAPODIK_REPORT_COLUMNS_LAST_SYNC="Last Sync"
//
// Validation uses go-playground/validator struct tags; Load fails with every
// offending field listed.
package config
