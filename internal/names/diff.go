// Package names shortens viewport labels to the parts that tell them apart.
package names

import "strings"

// Diff strips the prefix and suffix shared by every name and returns the
// remainders in input order. Cut points never split a trailing run of
// digits or letters, so "test1.nii" and "test2.nii" become "test1" and
// "test2" rather than "1" and "2". Names that still contain a folder are
// diffed once more per folder and file part and joined with " - ".
func Diff(names []string) []string {
	return diff(names, true)
}

func diff(names []string, recurse bool) []string {
	if len(names) == 0 {
		return []string{}
	}

	runes := make([][]rune, len(names))
	for i, n := range names {
		runes[i] = []rune(n)
	}
	first := runes[0]

	minLen := len(first)
	for _, r := range runes[1:] {
		minLen = min(minLen, len(r))
	}

	start := commonPrefix(runes, minLen)
	for start > 0 && isDigitOrDot(first[start-1]) {
		start--
	}
	for start > 0 && isLetter(first[start-1]) {
		start--
	}

	end := commonSuffix(runes, minLen)
	for end > 0 && isDigit(first[len(first)-end]) {
		end--
	}
	for end > 0 && isLower(first[len(first)-end]) {
		end--
	}

	out := make([]string, len(names))
	for i, r := range runes {
		stop := len(r) - end
		if stop < start {
			continue
		}
		out[i] = string(r[start:stop])
	}

	if !recurse {
		return out
	}

	folders := make([]string, len(out))
	files := make([]string, len(out))
	for i, n := range out {
		if j := strings.LastIndexByte(n, '/'); j >= 0 {
			folders[i] = n[:j]
			files[i] = n[j+1:]
		} else {
			files[i] = n
		}
	}
	folders = diff(folders, false)
	files = diff(files, false)

	for i := range out {
		if folders[i] == "" || files[i] == "" {
			out[i] = folders[i] + files[i]
		} else {
			out[i] = folders[i] + " - " + files[i]
		}
	}
	return out
}

func commonPrefix(runes [][]rune, limit int) int {
	n := limit
outer:
	for n > 0 {
		for _, r := range runes[1:] {
			if !equalRunes(r[:n], runes[0][:n]) {
				n--
				continue outer
			}
		}
		break
	}
	return n
}

func commonSuffix(runes [][]rune, limit int) int {
	first := runes[0]
	n := limit
outer:
	for n > 0 {
		for _, r := range runes[1:] {
			if !equalRunes(r[len(r)-n:], first[len(first)-n:]) {
				n--
				continue outer
			}
		}
		break
	}
	return n
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isDigit(r rune) bool      { return r >= '0' && r <= '9' }
func isDigitOrDot(r rune) bool { return r == '.' || isDigit(r) }
func isLower(r rune) bool      { return r >= 'a' && r <= 'z' }

// isLetter matches ASCII letters of either case.
func isLetter(r rune) bool { return isLower(r) || (r >= 'A' && r <= 'Z') }
