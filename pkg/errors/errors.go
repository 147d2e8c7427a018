package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigDirectory   = fmt.Errorf("failed to create directory")
	ErrNoSearchFacets    = fmt.Errorf("no search facets provided")
	ErrExtraParamsParse  = fmt.Errorf("invalid extra parameters JSON")

	// Query errors.
	ErrAllNodesFailed = fmt.Errorf("all search nodes failed or returned no files")
	ErrNoFilesFound   = fmt.Errorf("no files found matching the query")
	ErrFileNotFound   = fmt.Errorf("file not found on any search node")

	// Download errors.
	ErrInvalidDescriptor = fmt.Errorf("file descriptor is missing a filename or download URL")
	ErrNoHTTPURL         = fmt.Errorf("no HTTP download URL available")
	ErrDownloadFailed    = fmt.Errorf("download failed")
	ErrChecksumMismatch  = fmt.Errorf("checksum mismatch")
	ErrDownloadStopped   = fmt.Errorf("download stopped")
	ErrInvalidPath       = fmt.Errorf("invalid path")

	// Retry errors.
	ErrRetryFileRead  = fmt.Errorf("failed to read retry file")
	ErrNothingToRetry = fmt.Errorf("no failed files to retry")

	// PRISM archive errors.
	ErrPrismVariable   = fmt.Errorf("invalid PRISM variable")
	ErrPrismResolution = fmt.Errorf("invalid PRISM resolution")
	ErrPrismTimeStep   = fmt.Errorf("invalid PRISM time step")
	ErrPrismDate       = fmt.Errorf("invalid PRISM date")
	ErrPrismDateRange  = fmt.Errorf("invalid PRISM date range")
	ErrNoPrismFiles    = fmt.Errorf("no PRISM files available for download")

	// Catalog errors.
	ErrCatalogInput = fmt.Errorf("catalog input directory does not exist")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
