// Copyright © 2018 One Concern

// Package status declares error constants returned by
// implementations of the Blobstore interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/blobstore and one
// of its implementations.
package status

import "github.com/oneconcern/blobimport/pkg/errors"

var (
	// Sentinel errors returned by implementations of the interface defined by blobstore

	// ErrNotExists indicates that the fetched blob does not exist on storage
	ErrNotExists = errors.New("blob doesn't exist")

	// ErrUnauthorized indicates that you don't provided correct credentials to the API
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates that the backend API forbids access to the target resource
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidResource indicates that the storage resource has an invalid name
	ErrInvalidResource = errors.New("invalid storage resource name")

	// ErrStorageAPI indicates any other storage API error
	ErrStorageAPI = errors.New("storage API error")

	// ErrInvalidKey indicates that the key cannot be mapped to the backend
	ErrInvalidKey = errors.New("invalid blob key")

	// ErrNotFoundStore indicates that an existing store was expected
	ErrNotFoundStore = errors.New("blob store doesn't exist")
)
