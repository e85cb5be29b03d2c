package s3

import (
	"testing"
)

func TestParseDSN(t *testing.T) {
	b, err := ParseDSN("s3://mssql-snowflake-etl-bucket/staging/daily/", "eu-west-1")
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != "mssql-snowflake-etl-bucket" || b.Prefix != "staging/daily" || b.Region != "eu-west-1" {
		t.Fatalf("unexpected bucket: %+v", b)
	}
	if b.URL("product.csv") != "s3://mssql-snowflake-etl-bucket/staging/daily/product.csv" {
		t.Fatal("unexpected URL: ", b.URL("product.csv"))
	}
	// Scheme is optional.
	b, err = ParseDSN("bucket", "eu-west-1")
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != "bucket" || b.Prefix != "" || b.String() != "s3://bucket" {
		t.Fatalf("unexpected bucket: %+v", b)
	}
	if _, err := ParseDSN("gs://bucket/p", "eu-west-1"); err == nil {
		t.Fatal("expected error for wrong scheme")
	}
	if _, err := ParseDSN("s3://bucket/p", ""); err == nil {
		t.Fatal("expected error for missing region")
	}
	if err := (AwsS3Bucket{Name: "b", Prefix: "p", Region: "r"}).Parse(); err != nil {
		t.Fatal(err)
	}
}
