package result

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	"15:04:05",
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, *big.Rat, *big.Int:
		return true
	}
	return false
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case *big.Int:
		return n.Int64(), nil
	case *big.Rat:
		return new(big.Int).Quo(n.Num(), n.Denom()).Int64(), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case sqlbuf.Char:
		return int64(n), nil
	case string:
		return parseInt(n)
	case []byte:
		return parseInt(string(n))
	}
	return 0, conversionError(v, "integer")
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, conversionError(s, "integer")
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case *big.Rat:
		f, _ := n.Float64()
		return f, nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, nil
	case string:
		return parseFloat(n)
	case []byte:
		return parseFloat(string(n))
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, conversionError(v, "float")
	}
	return float64(i), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, conversionError(s, "float")
	}
	return f, nil
}

func toRat(v any) (*big.Rat, error) {
	switch n := v.(type) {
	case *big.Rat:
		return n, nil
	case *big.Int:
		return new(big.Rat).SetInt(n), nil
	case float32:
		return ratFromText(strconv.FormatFloat(float64(n), 'g', -1, 32))
	case float64:
		return ratFromText(strconv.FormatFloat(n, 'g', -1, 64))
	case string:
		return ratFromText(n)
	case []byte:
		return ratFromText(string(n))
	}
	i, err := toInt64(v)
	if err != nil {
		return nil, conversionError(v, "decimal")
	}
	return new(big.Rat).SetInt64(i), nil
}

func ratFromText(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, conversionError(s, "decimal")
	}
	return r, nil
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case *big.Rat:
		return new(big.Int).Quo(n.Num(), n.Denom()), nil
	case string, []byte:
		s := strings.TrimSpace(fmt.Sprintf("%s", n))
		i, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, conversionError(v, "integer")
		}
		return i, nil
	}
	i, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	return big.NewInt(i), nil
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		ok, _ := strconv.ParseBool(strings.TrimSpace(b))
		return ok
	case []byte:
		ok, _ := strconv.ParseBool(strings.TrimSpace(string(b)))
		return ok
	}
	i, err := toInt64(v)
	return err == nil && i != 0
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339Nano)
	case language.Tag:
		return dialects.FormatLocale(s)
	case *big.Rat:
		return dialects.RatString(s)
	case sqlbuf.Char:
		return s.String()
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	case int64:
		return time.UnixMilli(t), nil
	}
	return time.Time{}, conversionError(v, "time")
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, conversionError(s, "time")
}
