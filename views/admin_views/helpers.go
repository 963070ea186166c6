package admin_views

import "strconv"

func flip(selected bool) string {
	return strconv.FormatBool(!selected)
}
