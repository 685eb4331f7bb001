package tracks

import (
	"sort"
	"strconv"
)

func sortInt32s(a []int32) {
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
}

// NaturalLess reports whether a sorts before b treating runs of digits as
// numbers, so "movie2" sorts before "movie10".
func NaturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			aRun, aRest := digitRun(a)
			bRun, bRest := digitRun(b)
			aNum, _ := strconv.ParseUint(aRun, 10, 64)
			bNum, _ := strconv.ParseUint(bRun, 10, 64)
			if aNum != bNum {
				return aNum < bNum
			}
			a, b = aRest, bRest
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

// SortNatural sorts strings in natural alphanumeric order, comparing digit
// runs numerically rather than lexically.
func SortNatural(s []string) {
	sort.Slice(s, func(i, j int) bool { return NaturalLess(s[i], s[j]) })
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func digitRun(s string) (run, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
