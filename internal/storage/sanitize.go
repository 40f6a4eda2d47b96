package storage

import "strings"

// SanitizeCheckpointID keeps ASCII letters, digits, '-' and '_' and replaces
// every other rune with '_'. The result is safe as a file name and as a key
// in any backend.
func SanitizeCheckpointID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func checkpointKey(op, id string) (string, error) {
	if id == "" {
		return "", storageErr(op, id, ErrInvalidCheckpointID)
	}
	return SanitizeCheckpointID(id), nil
}
