// Package http implements the HTTP handlers of the dashboard API.
//
// Handlers are thin: they read the multipart upload, hand the files to a service and
// turn the result into JSON or a file download. Every failure goes through
// errors.ErrorHandler so clients always receive RFC 7807 problem details.
//
//	POST /api/reports/preview   tables, KPI, chart and ranking as JSON
//	POST /api/reports/xlsx      Rekap_Progres_SYNC_DAPODIK.xlsx
//	POST /api/reports/pdf       Rekap_Progres_SYNC_DAPODIK.pdf
//	POST /api/merge             hasil_merge.xlsx
//	GET  /api/health[/live|/ready], /api/version
package http
