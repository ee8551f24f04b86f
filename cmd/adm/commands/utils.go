package commands

import (
	"net/url"
	"strconv"
)

// maskDatabaseURL hides the credentials of a database URL for display
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

// difficultyArg accepts a difficulty as 1..3
func difficultyArg(d int) string {
	return strconv.Itoa(d)
}
