// Package privacy strips credentials and identifying detail from stream URLs
// and free-form messages before they are logged or reported.
package privacy

import (
	"net/url"
	"regexp"
	"strings"
)

// streamURLPattern finds URLs embedded in free text such as ffmpeg stderr
var streamURLPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.\-]*://[^\s"']*[^\s"':,.;]`)

// SanitizeStreamURL reduces a stream URL to scheme://host[:port]. User info,
// path and query are dropped since cameras commonly carry tokens there.
// Strings that do not parse as a URL with a host are returned unchanged.
func SanitizeStreamURL(source string) string {
	schemeEnd := strings.Index(source, "://")
	if schemeEnd <= 0 {
		return source
	}

	rest := source[schemeEnd+3:]
	if at := strings.LastIndex(cutAtPath(rest), "@"); at >= 0 {
		rest = rest[at+1:]
	}
	rest = cutAtPath(rest)
	if rest == "" {
		return source
	}

	return source[:schemeEnd+3] + rest
}

// cutAtPath returns the authority part of an URL remainder
func cutAtPath(rest string) string {
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		return rest[:i]
	}
	return rest
}

// ScrubMessage replaces every URL inside message with its sanitized form.
func ScrubMessage(message string) string {
	if !strings.Contains(message, "://") {
		return message
	}
	return streamURLPattern.ReplaceAllStringFunc(message, SanitizeStreamURL)
}

// RedactUserinfo keeps the full URL but masks the password, for places such
// as the config dump where the path is needed to tell streams apart.
func RedactUserinfo(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
