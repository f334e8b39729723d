package logger

import "strings"

// RedactHandle masks a social-media handle for safe logging.
// "creator_jane" → "cr***"
// Short handles (≤2 chars) are fully masked: "ab" → "***"
func RedactHandle(handle string) string {
	handle = strings.TrimPrefix(handle, "@")
	if len(handle) > 2 {
		return handle[:2] + "***"
	}
	return "***"
}

// RedactPath masks a filesystem path, keeping only the directory so an
// operator can still tell which session store was used.
// "/var/sessions/brand_kr.json" → "/var/sessions/***"
func RedactPath(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	if idx < 0 {
		return "***"
	}
	return path[:idx+1] + "***"
}

// redactValue masks values whose key marks them as recipient handles or
// session auth references.
func redactValue(key, val string) string {
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "username") || strings.Contains(k, "handle") || strings.Contains(k, "recipient"):
		if strings.Contains(val, ",") || strings.Contains(val, " ") {
			// A joined list of handles: mask each element
			parts := strings.FieldsFunc(val, func(r rune) bool { return r == ',' || r == ' ' || r == '[' || r == ']' })
			masked := make([]string, 0, len(parts))
			for _, p := range parts {
				masked = append(masked, RedactHandle(p))
			}
			return strings.Join(masked, ",")
		}
		return RedactHandle(val)
	case strings.Contains(k, "session"):
		return RedactPath(val)
	default:
		return val
	}
}
