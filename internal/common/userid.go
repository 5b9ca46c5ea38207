package common

import (
	"errors"
	"strconv"
)

var errBadUserID = errors.New("user id must be a canonical positive decimal integer")

// ParseUserID converts the textual form of a user id (token subject, path
// segment) into its canonical int64. Only plain ASCII digits without leading
// zeros are accepted.
func ParseUserID(s string) (int64, error) {
	if s == "" || len(s) > 19 || (len(s) > 1 && s[0] == '0') {
		return 0, errBadUserID
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errBadUserID
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadUserID
	}
	return id, nil
}
