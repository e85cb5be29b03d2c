package rdbms

import (
	"testing"
)

func TestSnowflakeDsnRoundTrip(t *testing.T) {
	in := &SnowflakeConnectionDetails{
		Account:   "acme",
		DBName:    "ANALYTICS",
		Schema:    "ADVENTURE_WORKS",
		User:      "etl",
		Password:  "pw",
		Warehouse: "ETL_WH",
		RoleName:  "LOADER",
	}
	dsn, err := SnowflakeGetDSN(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := SnowflakeParseDSN(dsn)
	if err != nil {
		t.Fatal(err)
	}
	if out.DBName != in.DBName || out.Schema != in.Schema || out.User != in.User || out.Warehouse != in.Warehouse {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if _, err := SnowflakeParseDSN("etl:pw@acme/ANALYTICS"); err == nil {
		t.Fatal("expected error for DSN without the snowflake:// prefix")
	}
}

func TestSnowflakeConnectionDetailsStringRedacts(t *testing.T) {
	d := SnowflakeConnectionDetails{User: "etl", Password: "pw", Account: "acme"}
	if got := d.String(); got == "" || contains(got, "pw@") {
		t.Fatal("password not redacted: ", got)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
