// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxJSONBodySize bounds JSON request bodies.
	MaxJSONBodySize = 1 << 20 // 1 MB

	// MaxAvatarSize bounds profile picture uploads (multipart).
	MaxAvatarSize = 5 << 20 // 5 MB

	// MaxCommentLength bounds comment content after sanitizing.
	MaxCommentLength = 10000
)
