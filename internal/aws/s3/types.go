package s3

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	uriWithPrefix = regexp.MustCompile(`^s3://([^/]+)/(.+[^/])/*$`)
	uriBucketOnly = regexp.MustCompile(`^s3://([^/]+)/*$`)
)

// URI is a parsed s3://bucket[/prefix] location.
type URI struct {
	Bucket string
	Prefix string
}

func ParseURI(s string) (URI, error) {
	if m := uriWithPrefix.FindStringSubmatch(s); m != nil {
		return URI{Bucket: m[1], Prefix: m[2]}, nil
	}
	if m := uriBucketOnly.FindStringSubmatch(s); m != nil {
		return URI{Bucket: m[1]}, nil
	}
	return URI{}, fmt.Errorf("invalid s3 uri %q: want s3://mybucket or s3://mybucket/mydir", s)
}

// Key joins name onto the URI's prefix.
func (u URI) Key(name string) string {
	if u.Prefix == "" {
		return name
	}
	return strings.TrimSuffix(u.Prefix, "/") + "/" + name
}

func (u URI) String() string {
	if u.Prefix == "" {
		return "s3://" + u.Bucket
	}
	return "s3://" + u.Bucket + "/" + u.Prefix
}

// ObjectURL returns the path-style HTTPS URL CloudFormation accepts as a
// TemplateURL.
func ObjectURL(bucket, key, region string) string {
	if region == "" || region == "us-east-1" {
		return fmt.Sprintf("https://s3.amazonaws.com/%s/%s", bucket, key)
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", region, bucket, key)
}
