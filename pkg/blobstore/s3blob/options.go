package s3blob

import (
	"github.com/aws/aws-sdk-go/aws"
	"go.uber.org/zap"
)

const defaultMaxRetries = 5

// Option to configure the S3 blob store
type Option func(*s3Store)

// AWSConfig specifies the AWS SDK configuration
func AWSConfig(cfg *aws.Config) Option {
	return func(s *s3Store) {
		s.awsConfig = cfg
	}
}

// Endpoint targets an S3-compatible service instead of AWS.
// Path-style addressing is enabled.
func Endpoint(endpoint string) Option {
	return func(s *s3Store) {
		if endpoint == "" {
			return
		}
		s.awsConfig = s.awsConfig.
			WithEndpoint(endpoint).
			WithS3ForcePathStyle(true)
	}
}

// Region sets the AWS region
func Region(region string) Option {
	return func(s *s3Store) {
		if region == "" {
			return
		}
		s.awsConfig = s.awsConfig.WithRegion(region)
	}
}

// MaxRetries bounds the number of retries of a failed put
func MaxRetries(retries uint64) Option {
	return func(s *s3Store) {
		s.maxRetries = retries
	}
}

// Logger specifies a logger for this store
func Logger(l *zap.Logger) Option {
	return func(s *s3Store) {
		if l != nil {
			s.l = l
		}
	}
}
