package common

const (
	// AuthorizationHeaderName carries the bearer access token on API requests.
	AuthorizationHeaderName = "Authorization"

	// MarkerFileName is the zero-byte placeholder that makes a prefix
	// enumerable as a folder.
	MarkerFileName = ".keep"

	// TrashRootPrefix is the top-level prefix under which soft-deleted
	// objects are parked: trash/{workspaceID}/...
	TrashRootPrefix = "trash"

	// DefaultContentType is reported for objects stored without metadata.
	DefaultContentType = "application/octet-stream"
)
