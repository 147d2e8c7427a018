package fsutil

// File and directory permission constants used throughout gridflow so that
// downloaded data and metadata documents always land with the same modes.
const (
	// FileModeDefault is the mode for downloaded files and metadata documents.
	FileModeDefault = 0o644 // -rw-r--r--

	// DirModeDefault is the mode for download, metadata and log directories.
	DirModeDefault = 0o755 // drwxr-xr-x
)
