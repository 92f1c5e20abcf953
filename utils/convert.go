// Package utils
package utils

import (
	"strconv"
)

func StrToUint32(data string) (uint32, error) {
	i, err := strconv.ParseUint(data, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(i), nil
}
