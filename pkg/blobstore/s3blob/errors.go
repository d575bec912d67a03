package s3blob

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/oneconcern/blobimport/pkg/blobstore/status"
)

func apiErrors(err awserr.RequestFailure) error {
	// handle S3 API errors
	// https://docs.aws.amazon.com/sdk-for-go/api/aws/awserr/#RequestFailure
	switch err.StatusCode() {
	case 400:
		if err.Code() == "InvalidBucketName" {
			return status.ErrInvalidResource.Wrap(err)
		}
		return status.ErrStorageAPI.Wrap(err)
	case 401:
		return status.ErrUnauthorized.Wrap(err)
	case 403:
		return status.ErrForbidden.Wrap(err)
	case 404:
		switch err.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound": // NotFound is a code produced by minio and not an official AWS code
			return status.ErrNotExists.Wrap(err)
		case s3.ErrCodeNoSuchBucket:
			return status.ErrInvalidResource.Wrap(err)
		default:
			return status.ErrStorageAPI.Wrap(err)
		}
	default:
		return status.ErrStorageAPI.Wrap(err)
	}
}

func toSentinelErrors(err error) error {
	// return sentinel errors defined by the status package
	// see: https://docs.aws.amazon.com/AmazonS3/latest/API/ErrorResponses.html#ErrorCodeList
	if err == nil {
		return nil
	}
	if awsErr, isAWS := err.(awserr.RequestFailure); isAWS {
		return apiErrors(awsErr)
	}
	return err
}

// isTransient tells if a failed request is worth retrying
func isTransient(err error) bool {
	awsErr, isAWS := err.(awserr.RequestFailure)
	if !isAWS {
		return true // network level failure
	}
	code := awsErr.StatusCode()
	return code == 429 || code >= 500
}
