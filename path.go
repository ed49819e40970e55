package virtfs

import "strings"

// IsAbs reports whether p is an absolute path (spec §4.1).
func IsAbs(p string) bool {
	return strings.HasPrefix(p, string(PathSeparator))
}

// IsDirectoryShaped reports whether p has a trailing separator, which the
// resolver treats as an explicit "this must be a directory" marker (spec
// §4.1, §4.3).
func IsDirectoryShaped(p string) bool {
	return len(p) > 0 && p[len(p)-1] == PathSeparator
}

// Components yields, in order, the root marker (if p is absolute) followed
// by each non-empty segment of p (spec §4.1).
func Components(p string) []string {
	if p == "" {
		return nil
	}

	var out []string

	if IsAbs(p) {
		out = append(out, string(PathSeparator))
	}

	for _, part := range strings.Split(p, string(PathSeparator)) {
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}

// LexicallyNormal removes empty components and resolves "." and ".."
// without touching the filesystem (spec §4.1). An empty path normalizes to
// ".". A trailing directory marker on p is preserved on the result.
func LexicallyNormal(p string) string {
	if p == "" {
		return "."
	}

	abs := IsAbs(p)
	dirShaped := IsDirectoryShaped(p) && p != string(PathSeparator)

	segs := strings.Split(p, string(PathSeparator))
	out := make([]string, 0, len(segs))

	for _, s := range segs {
		switch s {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
				continue
			}

			if abs {
				continue
			}

			out = append(out, "..")
		default:
			out = append(out, s)
		}
	}

	var b strings.Builder
	if abs {
		b.WriteByte(PathSeparator)
	}

	for i, s := range out {
		if i > 0 {
			b.WriteByte(PathSeparator)
		}

		b.WriteString(s)
	}

	result := b.String()
	if result == "" {
		if abs {
			return string(PathSeparator)
		}

		return "."
	}

	if dirShaped && !strings.HasSuffix(result, string(PathSeparator)) {
		result += string(PathSeparator)
	}

	return result
}

// Join joins a and b (spec §4.1): if b is absolute, Join returns b;
// otherwise b's components are appended to a. A trailing directory marker
// on b is preserved on the result; a trailing marker on a is not carried
// over once b is appended. An empty b returns a unchanged.
func Join(a, b string) string {
	if b == "" {
		return a
	}

	if IsAbs(b) {
		return LexicallyNormal(b)
	}

	if a == "" {
		return LexicallyNormal(b)
	}

	sep := string(PathSeparator)
	joined := strings.TrimSuffix(a, sep) + sep + b

	return LexicallyNormal(joined)
}

// Dir returns all but the last component of p.
func Dir(p string) string {
	norm := LexicallyNormal(p)
	idx := strings.LastIndexByte(strings.TrimSuffix(norm, string(PathSeparator)), PathSeparator)

	if idx < 0 {
		return "."
	}

	if idx == 0 {
		return string(PathSeparator)
	}

	return norm[:idx]
}

// Base returns the last component of p.
func Base(p string) string {
	norm := strings.TrimSuffix(LexicallyNormal(p), string(PathSeparator))
	if norm == "" || norm == string(PathSeparator) {
		return string(PathSeparator)
	}

	idx := strings.LastIndexByte(norm, PathSeparator)

	return norm[idx+1:]
}
