package device

import "sort"

// sortPins orders pins by physical pad using the alphanumeric comparator:
// alphabetic prefixes are ordered shorter first, then lexicographically
// (so A < B < AA), and the numeric suffix is compared as an integer. Pins
// without a physical pad sort after pins that have one, then by name. Only a single alpha-prefix/numeric-suffix segment
// is recognized (e.g. "AA12" compares "AA" then 12); multi-segment
// identifiers are out of scope.
func sortPins(pins []PinInfo) {
	sort.SliceStable(pins, func(i, j int) bool {
		a, b := pins[i], pins[j]
		if (a.PinNumber == "") != (b.PinNumber == "") {
			return a.PinNumber != "" // non-empty sorts first
		}
		if a.PinNumber == "" && b.PinNumber == "" {
			return a.Name < b.Name
		}
		aPrefix, aNum, aOK := splitAlphaNumeric(a.PinNumber)
		bPrefix, bNum, bOK := splitAlphaNumeric(b.PinNumber)
		if aPrefix != bPrefix {
			if len(aPrefix) != len(bPrefix) {
				return len(aPrefix) < len(bPrefix)
			}
			return aPrefix < bPrefix
		}
		if aOK && bOK {
			return aNum < bNum
		}
		return a.PinNumber < b.PinNumber
	})
}

// splitAlphaNumeric splits a pad identifier like "AA12" into its alphabetic
// prefix and numeric suffix. ok is false if no numeric suffix is present.
func splitAlphaNumeric(pad string) (prefix string, num int, ok bool) {
	i := len(pad)
	for i > 0 && pad[i-1] >= '0' && pad[i-1] <= '9' {
		i--
	}
	if i == len(pad) {
		return pad, 0, false
	}
	prefix = pad[:i]
	n := 0
	for _, r := range pad[i:] {
		n = n*10 + int(r-'0')
	}
	return prefix, n, true
}
