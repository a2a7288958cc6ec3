package sqlstore

import (
	"fmt"
	"time"
)

const (
	timestampLayout = "2006-01-02T15:04:05.000000Z"
	dateLayout      = "2006-01-02"
)

// dbTime scans timestamps stored either as native values or as text.
type dbTime time.Time

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = dbTime(v.UTC())
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		*t = dbTime(time.Time{})
		return nil
	default:
		return fmt.Errorf("sqlstore: cannot scan %T into timestamp", src)
	}
}

func (t *dbTime) parse(value string) error {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			*t = dbTime(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("sqlstore: invalid timestamp %q", value)
}

func (t dbTime) Time() time.Time { return time.Time(t) }

// nullDate scans an optional calendar date into its ISO form.
type nullDate struct {
	String string
	Valid  bool
}

func (d *nullDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = nullDate{}
	case time.Time:
		*d = nullDate{String: v.Format(dateLayout), Valid: true}
	case string:
		*d = nullDate{String: trimDate(v), Valid: true}
	case []byte:
		*d = nullDate{String: trimDate(string(v)), Valid: true}
	default:
		return fmt.Errorf("sqlstore: cannot scan %T into date", src)
	}
	return nil
}

func (d nullDate) Ptr() *string {
	if !d.Valid {
		return nil
	}
	s := d.String
	return &s
}

// trimDate drops a time suffix some drivers attach to DATE values.
func trimDate(value string) string {
	if len(value) > len(dateLayout) {
		return value[:len(dateLayout)]
	}
	return value
}
