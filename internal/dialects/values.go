package dialects

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

// BindValue converts a staged value into one the driver accepts for col.
func (d *Dictionary) BindValue(v any, col *schema.Column) (any, error) {
	if d.hooks.BindValue != nil {
		if out, ok := d.hooks.BindValue(d, v, col); ok {
			return out, nil
		}
	}
	switch val := v.(type) {
	case nil:
		return nil, nil
	case sqlbuf.Raw:
		return nil, fmt.Errorf("dialects: raw SQL %q cannot be bound", string(val))
	case sqlbuf.Char:
		if d.cfg.StoreCharsAsNumbers {
			return int64(val), nil
		}
		return string(rune(val)), nil
	case bool:
		if d.cfg.SupportsBooleanType {
			return val, nil
		}
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case *big.Rat:
		if val == nil {
			return nil, nil
		}
		return RatString(val), nil
	case *big.Int:
		if val == nil {
			return nil, nil
		}
		return val.String(), nil
	case language.Tag:
		return FormatLocale(val), nil
	case sqlbuf.Zoned:
		return val.In(), nil
	case sqlbuf.Stream:
		return readStream(val)
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case float32:
		return float64(val), nil
	}
	return v, nil
}

func readStream(s sqlbuf.Stream) (any, error) {
	if s.R == nil {
		return nil, nil
	}
	r := s.R
	if s.Length > 0 {
		r = io.LimitReader(r, int64(s.Length))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if s.Chars {
		return string(data), nil
	}
	return data, nil
}

// RatString renders r as an exact decimal when it has a finite expansion, and with 30
// fractional digits otherwise.
func RatString(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	den := new(big.Int).Set(r.Denom())
	two, five := big.NewInt(2), big.NewInt(5)
	var m big.Int
	scale := 0
	for _, p := range []*big.Int{two, five} {
		n := 0
		for {
			q, rem := new(big.Int).QuoRem(den, p, &m)
			if rem.Sign() != 0 {
				break
			}
			den = q
			n++
		}
		scale = max(scale, n)
	}
	if den.Cmp(big.NewInt(1)) != 0 {
		scale = 30
	}
	return r.FloatString(scale)
}

// FormatLocale renders a locale as language_region_variant.
func FormatLocale(tag language.Tag) string {
	base, _ := tag.Base()
	region, conf := tag.Region()
	reg := ""
	if conf != language.No {
		reg = region.String()
	}
	variants := tag.Variants()
	variant := ""
	if len(variants) > 0 {
		variant = variants[0].String()
	}
	return base.String() + "_" + reg + "_" + variant
}

// ParseLocale parses language_region[_variant]. At least two parts are required.
func ParseLocale(s string) (language.Tag, error) {
	parts := strings.Split(s, "_")
	if len(parts) < 2 {
		return language.Und, fmt.Errorf("dialects: locale %q has fewer than two parts", s)
	}
	var sb strings.Builder
	sb.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p != "" {
			sb.WriteByte('-')
			sb.WriteString(p)
		}
	}
	return language.Parse(sb.String())
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

// ConvertResult normalizes a driver value read for a column of type typ. Products that
// store characters, booleans or times in other types have them converted back.
func (d *Dictionary) ConvertResult(v any, typ schema.MetaType) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		switch typ {
		case schema.TypeBytes, schema.TypeBlob, schema.TypeBinaryStream, schema.TypeObject, schema.TypeArray:
			return val, nil
		}
		return d.ConvertResult(string(val), typ)
	case int64:
		switch typ {
		case schema.TypeBoolean:
			return val != 0, nil
		case schema.TypeChar:
			return sqlbuf.Char(rune(val)), nil
		}
	case string:
		switch typ {
		case schema.TypeChar:
			if d.cfg.StoreCharsAsNumbers {
				if n, err := strconv.ParseInt(val, 10, 32); err == nil {
					return sqlbuf.Char(rune(n)), nil
				}
			}
			for _, r := range val {
				return sqlbuf.Char(r), nil
			}
			return nil, nil
		case schema.TypeDate, schema.TypeTimestamp, schema.TypeSQLDate, schema.TypeSQLTime:
			return parseTime(val)
		case schema.TypeLocale:
			return ParseLocale(val)
		}
	}
	return v, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dialects: cannot parse %q as a time", s)
}

// Timeout returns the statement timeout for a select or update. Locking statements use
// the larger of the query and lock timeouts. fetch.NoTimeout and unsupported timeouts
// give zero, meaning none, and sub-second timeouts round up to one second.
func (d *Dictionary) Timeout(forUpdate bool, f *fetch.Config) time.Duration {
	if f == nil || !d.cfg.SupportsQueryTimeout {
		return 0
	}
	timeout := f.QueryTimeout
	if forUpdate && f.LockTimeout > timeout {
		timeout = f.LockTimeout
	}
	switch {
	case timeout <= 0:
		return 0
	case timeout < time.Second:
		return time.Second
	}
	return timeout.Truncate(time.Second)
}
