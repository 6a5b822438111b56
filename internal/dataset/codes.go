package dataset

import (
	"regexp"
	"strconv"
	"strings"
)

var floatCodeRe = regexp.MustCompile(`^\d+\.0+$`)

// PadCode left-pads a code with zeros to width, like Python's str.zfill.
// Codes that went through a float column ("1001.0") lose their decimal part first.
func PadCode(code string, width int) string {
	code = strings.TrimSpace(code)
	if floatCodeRe.MatchString(code) {
		code = code[:strings.IndexByte(code, '.')]
	}
	if len(code) >= width {
		return code
	}
	return strings.Repeat("0", width-len(code)) + code
}

// DepartmentCode normalizes a department code: one digit codes are padded to two,
// Corsican 2A/2B and three digit overseas codes are kept.
func DepartmentCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if floatCodeRe.MatchString(code) {
		code = code[:strings.IndexByte(code, '.')]
	}
	if code == "" {
		return ""
	}
	return PadCode(code, 2)
}

// DepartmentOf derives the department code from a five character commune code
func DepartmentOf(commune string) string {
	if len(commune) < 2 {
		return ""
	}
	if strings.HasPrefix(commune, "97") && len(commune) >= 3 {
		return commune[:3]
	}
	return commune[:2]
}

// RegionCode normalizes a region code so "1", "01" and "1.0" compare equal
func RegionCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	return PadCode(code, 2)
}

var communeCodeRe = regexp.MustCompile(`^(\d{1,5}|2[ABab]\d{3})(\.0+)?$`)

// looksLikeCommuneCode reports whether v is a commune code rather than a name
func looksLikeCommuneCode(v string) bool {
	return communeCodeRe.MatchString(strings.TrimSpace(v))
}

// ParseNumber parses numbers written with French conventions
// ("1 234", "1 234,5") as well as plain ones. Unparseable input yields 0, false.
func ParseNumber(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if IsMissing(v) {
		return 0, false
	}
	v = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(v)
	if strings.Contains(v, ",") && !strings.Contains(v, ".") {
		v = strings.Replace(v, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
