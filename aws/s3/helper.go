package s3

import (
	"fmt"
	"net/url"
	"strings"
)

type AwsS3Bucket struct {
	Name   string `errorTxt:"bucket name" mandatory:"yes" yaml:"name" mapstructure:"name"`
	Prefix string `errorTxt:"bucket prefix" yaml:"prefix" mapstructure:"prefix"`
	Region string `errorTxt:"bucket region" mandatory:"yes" yaml:"region" mapstructure:"region"`
}

func (d AwsS3Bucket) Parse() error {
	_, err := ParseDSN(d.String(), d.Region)
	return err
}

// String returns the bucket as an s3:// URL.
func (d AwsS3Bucket) String() string {
	if d.Prefix == "" {
		return fmt.Sprintf("s3://%s", d.Name)
	}
	return fmt.Sprintf("s3://%s/%s", d.Name, strings.Trim(d.Prefix, "/"))
}

// URL returns the s3:// location of key within the bucket and prefix.
func (d AwsS3Bucket) URL(key string) string {
	return fmt.Sprintf("s3://%s/%s", d.Name, JoinKey(d.Prefix, key))
}

// ParseDSN expects bucketPrefix to be of the form [s3://]<bucket>/<prefix>
// It returns an AwsS3Bucket populated with the components of bucketPrefix and the supplied region.
// If there is a parsing error it returns an error.
func ParseDSN(bucketPrefix string, region string) (retval AwsS3Bucket, err error) {
	expectedScheme := "s3"
	if !strings.Contains(bucketPrefix, "://") { // if there is no scheme...
		bucketPrefix = expectedScheme + "://" + bucketPrefix
	}
	s3url, err := url.Parse(bucketPrefix)
	if err != nil {
		return retval, fmt.Errorf("error parsing S3 URL: %v", err)
	}
	if s3url.Scheme != expectedScheme {
		return retval, fmt.Errorf("expected S3 URL scheme %q but got %q", expectedScheme, s3url.Scheme)
	}
	if region == "" {
		return retval, fmt.Errorf("value expected for bucket region")
	}
	retval.Name = s3url.Host
	if retval.Name == "" {
		return retval, fmt.Errorf("DSN failed to parse bucket name")
	}
	retval.Prefix = strings.Trim(s3url.Path, "/")
	retval.Region = region
	return
}
