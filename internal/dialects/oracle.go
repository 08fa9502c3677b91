package dialects

import (
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

func oracleConfig() Config {
	c := sql92Config()
	c.Name = "oracle"
	c.Products = []string{"oracle"}
	c.Protocols = []string{"jdbc:oracle:", "oracle://"}
	c.ReservedWords = reservedWords("ACCESS", "AUDIT", "CLUSTER", "COMMENT", "FILE", "LEVEL", "LONG", "MODE", "NUMBER", "RAW", "ROWID", "ROWNUM", "SYSDATE", "UID")
	c.Placeholder = PlaceholderColon
	// ranges are rendered by the ROWNUM wrapper
	c.Pagination = PaginationNone
	c.SupportsSelectStartIndex = true
	c.SupportsSelectEndIndex = true
	c.SupportsHints = true
	c.SupportsBooleanType = false
	c.RequiresAliasForSubselect = false
	c.SubstringFunctionName = "SUBSTR"
	c.IndexOfFunction = "(INSTR({0}, {1}) - 1)"
	c.StringLengthFunction = "LENGTH({0})"
	c.XMLMarker = "XMLType(?)"
	c.NextSequenceQuery = "SELECT {0}.NEXTVAL FROM DUAL"
	c.TypeNames = map[schema.SQLType]string{
		schema.SQLBit:         "NUMBER(1)",
		schema.SQLBoolean:     "NUMBER(1)",
		schema.SQLTinyInt:     "NUMBER(3)",
		schema.SQLSmallInt:    "NUMBER(5)",
		schema.SQLInteger:     "NUMBER(10)",
		schema.SQLBigInt:      "NUMBER(19)",
		schema.SQLDouble:      "BINARY_DOUBLE",
		schema.SQLReal:        "BINARY_FLOAT",
		schema.SQLNumeric:     "NUMBER{0}",
		schema.SQLDecimal:     "NUMBER{0}",
		schema.SQLVarchar:     "VARCHAR2{0}",
		schema.SQLLongVarchar: "LONG",
		schema.SQLBinary:      "RAW{0}",
		schema.SQLVarbinary:   "RAW{0}",
		schema.SQLTime:        "DATE",
		schema.SQLXML:         "XMLTYPE",
	}
	return c
}

// oracleToSelect pages with ROWNUM. An unordered, non-distinct select with no start
// filters ROWNUM in its own WHERE clause; anything else is wrapped so ROWNUM is assigned
// after ordering.
func oracleToSelect(d *Dictionary, p *SelectParts, forUpdate bool, f *fetch.Config) *sqlbuf.Buffer {
	start, end := d.EffectiveRange(p.Start, p.End)
	if start == 0 && end == NoEnd {
		return d.DefaultToSelect(p, forUpdate, f)
	}

	cp := *p
	cp.Start, cp.End = 0, NoEnd
	if start == 0 && !p.Distinct && isEmpty(p.Order) && isEmpty(p.Group) {
		where := d.NewBuffer()
		if !isEmpty(p.Where) {
			where.Append("(").AppendBuffer(p.Where).Append(") AND ")
		}
		cp.Where = where.Append("ROWNUM <= ").AppendValue(end)
		return d.DefaultToSelect(&cp, forUpdate, f)
	}

	inner := d.DefaultToSelect(&cp, forUpdate, f)
	buf := d.NewBuffer()
	if start == 0 {
		return buf.Append("SELECT * FROM (").AppendBuffer(inner).Append(") WHERE ROWNUM <= ").AppendValue(end)
	}
	buf.Append("SELECT * FROM (SELECT r.*, ROWNUM RNUM FROM (").AppendBuffer(inner).Append(") r")
	if end != NoEnd {
		buf.Append(" WHERE ROWNUM <= ").AppendValue(end)
	}
	return buf.Append(") WHERE RNUM > ").AppendValue(start)
}

// oracleNativeJoin marks the optional side of outer joins with (+).
func oracleNativeJoin(d *Dictionary, j *join.Join) *sqlbuf.Buffer {
	if j.Type == join.Outer {
		return d.joinCondition(j, "(+)")
	}
	return d.joinCondition(j, "")
}

// oracleIsFatal treats resource-busy, deadlock, library cache lock and remote lock
// timeouts as recoverable locks and user cancellation as a recoverable query error.
func oracleIsFatal(kind errs.Kind, det errs.Details) bool {
	switch kind {
	case errs.Lock:
		if det.SQLState == "61000" {
			switch det.VendorCode {
			case 54, 60, 4020, 4021, 4022:
				return false
			}
		}
		if det.SQLState == "42000" && det.VendorCode == 2049 {
			return false
		}
	case errs.Query:
		if det.SQLState == "72000" && det.VendorCode == 1013 {
			return false
		}
	}
	return true
}

func init() {
	Register(New(oracleConfig(), Hooks{
		ToSelect:   oracleToSelect,
		NativeJoin: oracleNativeJoin,
		IsFatal:    oracleIsFatal,
	}))
}
