package storage

import (
	"fmt"
	"strings"
	"time"
)

type dialect struct {
	name          string
	driver        string
	timestampType string
	placeholder   func(n int) string
}

var (
	postgresDialect = dialect{
		name:          "postgres",
		driver:        "postgres",
		timestampType: "TIMESTAMPTZ",
		placeholder:   func(n int) string { return fmt.Sprintf("$%d", n) },
	}
	sqliteDialect = dialect{
		name:          "sqlite",
		driver:        "sqlite",
		timestampType: "TIMESTAMP",
		placeholder:   func(int) string { return "?" },
	}
)

// dialectFor picks the driver from the DSN. URLs and key=value strings go to
// PostgreSQL; "sqlite:" and "file:" prefixes go to SQLite.
func dialectFor(dsn string) (dialect, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return dialect{}, "", fmt.Errorf("empty connection string")
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqliteDialect, sqlitePath(strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqliteDialect, sqlitePath(strings.TrimPrefix(dsn, "sqlite:")), nil
	case strings.HasPrefix(dsn, "file:"):
		return sqliteDialect, sqlitePath(dsn), nil
	default:
		return postgresDialect, dsn, nil
	}
}

// sqlitePath adds a busy timeout so a dashboard reading while an import
// writes waits instead of failing.
func sqlitePath(path string) string {
	if strings.Contains(path, "_pragma=busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

// sqliteTimeLayouts are the text forms a TIMESTAMP column may come back in.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// nullTime scans timestamps from either driver: lib/pq hands back
// time.Time, SQLite may hand back text.
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) Scan(value any) error {
	n.Time, n.Valid = time.Time{}, false
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		n.Time, n.Valid = v, true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("nullTime: unsupported type %T", value)
	}
}

func (n *nullTime) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time, n.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("nullTime: cannot parse %q", s)
}
