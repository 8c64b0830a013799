package storage

import "testing"

func TestRebind(t *testing.T) {
	query := "INSERT INTO readings (device_ref, sensor_type, value, ts) VALUES (?, ?, ?, ?)"
	cases := []struct {
		dialect string
		want    string
	}{
		{"mysql", query},
		{"postgres", "INSERT INTO readings (device_ref, sensor_type, value, ts) VALUES ($1, $2, $3, $4)"},
		{"sqlserver", "INSERT INTO readings (device_ref, sensor_type, value, ts) VALUES (@p1, @p2, @p3, @p4)"},
	}
	for _, tc := range cases {
		t.Run(tc.dialect, func(t *testing.T) {
			s := &Store{dialect: tc.dialect}
			if got := s.rebind(query); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRebindNoPlaceholders(t *testing.T) {
	s := &Store{dialect: "postgres"}
	query := "SELECT COUNT(*) FROM devices"
	if got := s.rebind(query); got != query {
		t.Fatalf("expected query unchanged, got %q", got)
	}
}

func TestBuildDSN(t *testing.T) {
	base := Config{Host: "db.internal", Port: 5432, User: "app", Password: "pw", Database: "sensors"}

	cases := []struct {
		dbType     string
		wantDriver string
		wantDSN    string
	}{
		{"mysql", "mysql", "app:pw@tcp(db.internal:5432)/sensors?parseTime=true"},
		{"postgres", "postgres", "postgres://app:pw@db.internal:5432/sensors?sslmode=disable"},
		{"postgresql", "postgres", "postgres://app:pw@db.internal:5432/sensors?sslmode=disable"},
		{"sqlserver", "sqlserver", "sqlserver://app:pw@db.internal:5432?database=sensors"},
		{"MSSQL", "sqlserver", "sqlserver://app:pw@db.internal:5432?database=sensors"},
	}
	for _, tc := range cases {
		t.Run(tc.dbType, func(t *testing.T) {
			cfg := base
			cfg.Type = tc.dbType
			driver, dsn, err := buildDSN(cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if driver != tc.wantDriver || dsn != tc.wantDSN {
				t.Fatalf("expected %s %q, got %s %q", tc.wantDriver, tc.wantDSN, driver, dsn)
			}
		})
	}
}

func TestBuildDSNSSLMode(t *testing.T) {
	cfg := Config{Type: "postgres", Host: "h", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "require"}
	_, dsn, err := buildDSN(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dsn != "postgres://u:p@h:5432/d?sslmode=require" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
}

func TestBuildDSNUnsupported(t *testing.T) {
	if _, _, err := buildDSN(Config{Type: "oracle"}); err == nil {
		t.Fatalf("expected an error for an unsupported engine")
	}
}
