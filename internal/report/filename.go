package report

import (
	"strings"
	"unicode"
)

var fileNameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_",
	"?", "", "*", "", "\"", "", "<", "", ">", "", "|", "",
)

// SafeFileName strips characters that are not allowed in file names on common
// filesystems.
func SafeFileName(name string) string {
	s := fileNameReplacer.Replace(name)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Trim(s, " .")
	if s == "" {
		return "respondent"
	}
	return s
}

// FileName returns the report file name for a respondent.
func FileName(name string) string {
	return "Report - " + SafeFileName(name) + ".html"
}
