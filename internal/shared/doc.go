// Package shared holds helpers used by more than one package. The testutil
// subpackage builds in-memory master workbooks and captures slog output for tests.
package shared
