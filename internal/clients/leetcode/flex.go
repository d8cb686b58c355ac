package leetcode

import (
	"bytes"
	"strconv"
	"strings"
)

// The upstream API is loose about numeric types: the same field may arrive as
// a JSON number, a quoted number ("50.5"), a percentage string ("50.5%"), or
// null. FlexInt and FlexFloat absorb all of those, defaulting to zero rather
// than failing the decode.

type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt(parseFlex(data))
	return nil
}

type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat(parseFlex(data))
	return nil
}

func parseFlex(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
