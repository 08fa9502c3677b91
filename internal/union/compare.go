package union

import (
	"bytes"
	"cmp"
	"fmt"
	"math/big"
	"time"

	"github.com/coregx/ormsql/internal/result"
	"github.com/coregx/ormsql/internal/schema"
)

// comparator collates merged results by the selected ORDER BY columns of each member.
// A member ordering by one column yields scalar keys, one ordering by several yields
// []any keys.
type comparator struct {
	orders [][]int
	dirs   []orderDir
}

var _ result.Comparator = (*comparator)(nil)

func (c *comparator) OrderingValue(r result.Result, idx int) (any, error) {
	var positions []int
	if idx < len(c.orders) {
		positions = c.orders[idx]
	}
	switch len(positions) {
	case 0:
		return nil, nil
	case 1:
		return r.Object(positions[0], schema.TypeObject, nil)
	}
	vals := make([]any, len(positions))
	for i, pos := range positions {
		v, err := r.Object(pos, schema.TypeObject, nil)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (c *comparator) desc(i int) bool {
	return i < len(c.dirs) && c.dirs[i] == orderDesc
}

func (c *comparator) directed(i, n int) int {
	if c.desc(i) {
		return -n
	}
	return n
}

// Compare orders two keys. Null keys sort first under an ascending first position and
// last under a descending one. A scalar compared with a tuple compares against the
// tuple's first element and, when equal, sorts first. Tuples compare element-wise and
// then by length.
func (c *comparator) Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return c.directed(0, -1)
	}
	if b == nil {
		return c.directed(0, 1)
	}

	as, aTuple := a.([]any)
	bs, bTuple := b.([]any)
	switch {
	case !aTuple && !bTuple:
		return c.directed(0, compareValues(a, b))
	case !aTuple:
		if n := compareValues(a, first(bs)); n != 0 {
			return c.directed(0, n)
		}
		return -1
	case !bTuple:
		if n := compareValues(first(as), b); n != 0 {
			return c.directed(0, n)
		}
		return 1
	}
	for i := 0; i < len(as) && i < len(bs); i++ {
		if n := compareValues(as[i], bs[i]); n != 0 {
			return c.directed(i, n)
		}
	}
	return cmp.Compare(len(as), len(bs))
}

func first(vals []any) any {
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

// compareValues orders two column values of compatible types. Nil sorts first. Values
// of unrelated types compare by their text.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if ra, ok := toRat(a); ok {
		if rb, ok := toRat(b); ok {
			return ra.Cmp(rb)
		}
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	case []byte:
		if y, ok := b.([]byte); ok {
			return bytes.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return cmp.Compare(boolInt(x), boolInt(y))
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// toRat converts a numeric value for exact comparison across numeric types.
func toRat(v any) (*big.Rat, bool) {
	switch n := v.(type) {
	case int:
		return new(big.Rat).SetInt64(int64(n)), true
	case int8:
		return new(big.Rat).SetInt64(int64(n)), true
	case int16:
		return new(big.Rat).SetInt64(int64(n)), true
	case int32:
		return new(big.Rat).SetInt64(int64(n)), true
	case int64:
		return new(big.Rat).SetInt64(n), true
	case uint8:
		return new(big.Rat).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Rat).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Rat).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Rat).SetUint64(n), true
	case float32:
		return ratFromFloat(float64(n))
	case float64:
		return ratFromFloat(n)
	case *big.Rat:
		return n, n != nil
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return new(big.Rat).SetInt(n), true
	}
	return nil, false
}

func ratFromFloat(f float64) (*big.Rat, bool) {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		return nil, false
	}
	return r, true
}
