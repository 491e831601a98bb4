package backend

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Params maps filter field names to scalar or slice values destined for a
// list request query string.
type Params map[string]any

const dateLayout = "2006-01-02"

// Encode serializes params into a URL query string. Nil values and strings
// that are empty after trimming are omitted; slice elements are appended
// under the same key in order; dates collapse to calendar days. The result
// is "" when nothing survives, otherwise it starts with "?".
func Encode(params Params) string {
	values := url.Values{}
	for key, value := range params {
		appendValue(values, key, value)
	}
	encoded := values.Encode()
	if encoded == "" {
		return ""
	}
	return "?" + encoded
}

func appendValue(values url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case []string:
		for _, item := range v {
			appendScalar(values, key, item)
		}
	case []int:
		for _, item := range v {
			appendScalar(values, key, item)
		}
	case []int64:
		for _, item := range v {
			appendScalar(values, key, item)
		}
	case []time.Time:
		for _, item := range v {
			appendScalar(values, key, item)
		}
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			appendScalar(values, key, item)
		}
	default:
		appendScalar(values, key, v)
	}
}

func appendScalar(values url.Values, key string, value any) {
	s, ok := stringify(value)
	if !ok {
		return
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	values.Add(key, s)
}

func stringify(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.Format(dateLayout), true
	case Date:
		if v.IsZero() {
			return "", false
		}
		return v.Format(dateLayout), true
	case *time.Time:
		if v == nil {
			return "", false
		}
		return stringify(*v)
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case *int64:
		if v == nil {
			return "", false
		}
		return strconv.FormatInt(*v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		// Unrecognized types are coerced permissively.
		return fmt.Sprint(v), true
	}
}
