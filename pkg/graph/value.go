package graph

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies what a Value holds
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindText
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DateLayout is the only accepted textual date format (e.g. "2021-06-15")
const DateLayout = "2006-01-02"

// Value is a single node attribute value. The zero Value is Missing.
type Value struct {
	kind Kind
	num  float64
	text string
	date time.Time
}

// Missing is the absent-value sentinel
var Missing = Value{}

// Number wraps a numeric attribute value
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Text wraps a string attribute value
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Date wraps a calendar day. Time of day and location are dropped.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Kind returns the kind of the value
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the absent sentinel
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric value and whether v is a number
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Str returns the text value and whether v is text
func (v Value) Str() (string, bool) {
	return v.text, v.kind == KindText
}

// Time returns the date value and whether v is a date
func (v Value) Time() (time.Time, bool) {
	return v.date, v.kind == KindDate
}

// Interface returns v as a plain Go value (nil, float64, string or
// time.Time), suitable for JSON encoding
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		return v.text
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return v.text
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return "<missing>"
	}
}

// ValueOf converts a decoded JSON or table value to a Value.
// Unsupported types yield Missing.
func ValueOf(x any) Value {
	switch t := x.(type) {
	case nil:
		return Missing
	case Value:
		return t
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		if t {
			return Number(1)
		}
		return Number(0)
	case string:
		return Text(t)
	case time.Time:
		return Date(t)
	default:
		return Missing
	}
}
