package date

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Format is the ISO-8601 form used in storage, config and logs.
const Format = "2006-01-02"

// Date is a calendar day with no time component. The zero value is "unset".
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month and day.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.Time().Date()
	return d
}

// FromTime truncates t to its calendar day in t's location.
func FromTime(t time.Time) Date { return New(t.Date()) }

// Today returns the current date in UTC.
func Today() Date { return FromTime(time.Now().UTC()) }

// Parse parses a Date in Format.
func Parse(str string) (Date, error) {
	t, err := time.Parse(Format, str)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, Format, err)
	}
	return FromTime(t), nil
}

// MustParse is like Parse but panics on error.
func MustParse(str string) Date {
	d, err := Parse(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }

func (d Date) After(x Date) bool { return d.Time().After(x.Time()) }

func (d Date) AddDays(n int) Date { return New(d.y, d.m, d.d+n) }

func (d Date) String() string { return d.Time().Format(Format) }

func (d Date) Unix() int64 { return d.Time().Unix() }

// DaysSince returns the number of whole days from x to d.
func (d Date) DaysSince(x Date) int { return int(d.Time().Sub(x.Time()).Hours() / 24) }

// Min returns the earliest of the given dates.
func Min(first Date, rest ...Date) Date {
	m := first
	for _, d := range rest {
		if d.Before(m) {
			m = d
		}
	}
	return m
}

// Scan implements sql.Scanner. Postgres DATE columns arrive as time.Time,
// SQLite TEXT columns as string or []byte.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = New(v.UTC().Date())
		return nil
	case string:
		return d.parseStored(v)
	case []byte:
		return d.parseStored(string(v))
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
}

func (d *Date) parseStored(s string) error {
	if len(s) > len(Format) {
		// SQLite may hand back "2025-03-01T00:00:00Z" or "2025-03-01 00:00:00".
		s = s[:len(Format)]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}
