package privacy

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// excludedPathPatterns are structural exclusions: dotenv files, version
// control metadata, and certificate/key material. Matched against the
// normalized (forward-slash, lowercased) path.
var excludedPathPatterns = []string{
	"**/.env",
	"**/.env.*",
	"**/.git",
	"**/.git/**",
	"**/.svn",
	"**/.svn/**",
	"**/.hg",
	"**/.hg/**",
	"**/*.pem",
	"**/*.key",
	"**/*.crt",
	"**/*.cer",
	"**/*.der",
	"**/*.p12",
	"**/*.pfx",
}

// sensitiveSegmentWords exclude any path with a segment mentioning them.
var sensitiveSegmentWords = []string{
	"secret",
	"password",
	"credential",
	"token",
	"private",
}

// AdmitsPath reports whether a file path may be captured at all. It returns
// false for dotenv files and variants, anything under version-control
// metadata directories, certificate/key file extensions, and any path
// segment containing a sensitive word (case-insensitive). Backslashes are
// folded to forward slashes before matching so Windows paths are judged the
// same as POSIX ones.
func AdmitsPath(path string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
	normalized = strings.TrimSuffix(normalized, "/")
	if normalized == "" {
		return false
	}

	for _, pattern := range excludedPathPatterns {
		if ok, _ := doublestar.Match(pattern, normalized); ok {
			return false
		}
	}

	for _, segment := range strings.Split(normalized, "/") {
		for _, word := range sensitiveSegmentWords {
			if strings.Contains(segment, word) {
				return false
			}
		}
	}

	return true
}
