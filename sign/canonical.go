package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// CanonicalQuery encodes query parameters in signing form: names sorted
// byte-wise (values sorted within a name), percent-encoded with the AWS
// rules — unreserved characters `-_.~` kept literal, space as %20, uppercase
// hex digits.
func CanonicalQuery(v url.Values) string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		values := append([]string(nil), v[name]...)
		sort.Strings(values)
		encoded := escapeQuery(name)
		for _, value := range values {
			parts = append(parts, encoded+"="+escapeQuery(value))
		}
	}
	return strings.Join(parts, "&")
}

// escapeQuery percent-encodes one query component. url.QueryEscape already
// keeps the unreserved set and uses uppercase hex; only its space encoding
// differs from the signing rules.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// CanonicalPath returns the URI path as it appears in a v4 canonical
// request: segment-wise percent-encoded with `/` preserved. S3 is exempt —
// object keys must round-trip byte-for-byte, so its path is used unmodified.
// An empty path canonicalizes to "/".
func CanonicalPath(service, path string) string {
	if path == "" {
		return "/"
	}
	if service == "s3" {
		return path
	}
	return escapePath(path)
}

// escapePath percent-encodes a path, leaving the unreserved set and segment
// separators literal.
func escapePath(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case c == '-', c == '_', c == '.', c == '~', c == '/':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
	}
	return b.String()
}

// CanonicalHeaders returns the canonical header block (one
// `name:value\n` line per header, names lowercased and sorted, values
// trimmed of surrounding whitespace only, duplicates joined with commas) and
// the `;`-joined SignedHeaders list.
func CanonicalHeaders(h http.Header) (canonical, signed string) {
	type header struct {
		name   string
		values []string
	}
	headers := make([]header, 0, len(h))
	for name, values := range h {
		headers = append(headers, header{name: strings.ToLower(name), values: values})
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].name < headers[j].name })

	var block strings.Builder
	names := make([]string, len(headers))
	for i, hdr := range headers {
		trimmed := make([]string, len(hdr.values))
		for j, v := range hdr.values {
			// Surrounding whitespace only; inner whitespace is part of the
			// signed value.
			trimmed[j] = strings.TrimSpace(v)
		}
		block.WriteString(hdr.name)
		block.WriteByte(':')
		block.WriteString(strings.Join(trimmed, ","))
		block.WriteByte('\n')
		names[i] = hdr.name
	}
	return block.String(), strings.Join(names, ";")
}

// hashSHA256 returns the lowercase hex SHA-256 digest of data.
func hashSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hmacSHA256 computes a single HMAC-SHA256 round.
func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// SigningKey derives the v4 signing key: the secret key prefixed with
// "AWS4", HMAC-chained through each credential scope component.
func SigningKey(secretKey, date, region, service string) []byte {
	key := hmacSHA256([]byte("AWS4"+secretKey), []byte(date))
	key = hmacSHA256(key, []byte(region))
	key = hmacSHA256(key, []byte(service))
	return hmacSHA256(key, []byte("aws4_request"))
}
