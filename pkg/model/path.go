// Copyright © 2018 One Concern

package model

import (
	"fmt"
	"strings"
)

// PathKind tells what kind of object a RepoPath points to
type PathKind uint8

// Kinds of repo paths
const (
	RootKind PathKind = iota
	DirKind
	FileKind
)

const (
	rootPrefix = "root"
	dirPrefix  = "dir:"
	filePrefix = "file:"
)

// RepoPath locates a manifest or a file in the repository.
//
// The root manifest has an empty path.
type RepoPath struct {
	Kind PathKind
	Path string
}

// RootPath is the path of the root manifest
func RootPath() RepoPath {
	return RepoPath{Kind: RootKind}
}

// DirPath is the path of a tree manifest
func DirPath(pth string) RepoPath {
	return RepoPath{Kind: DirKind, Path: pth}
}

// FilePath is the path of a file
func FilePath(pth string) RepoPath {
	return RepoPath{Kind: FileKind, Path: pth}
}

// ParseRepoPath reads back the string form of a RepoPath
func ParseRepoPath(s string) (RepoPath, error) {
	switch {
	case s == rootPrefix:
		return RootPath(), nil
	case strings.HasPrefix(s, dirPrefix):
		return DirPath(strings.TrimPrefix(s, dirPrefix)), nil
	case strings.HasPrefix(s, filePrefix):
		return FilePath(strings.TrimPrefix(s, filePrefix)), nil
	default:
		return RepoPath{}, fmt.Errorf("invalid repo path %q", s)
	}
}

func (p RepoPath) String() string {
	switch p.Kind {
	case DirKind:
		return dirPrefix + p.Path
	case FileKind:
		return filePrefix + p.Path
	default:
		return rootPrefix
	}
}

// MarshalText encodes the path as a string
func (p RepoPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a path from its string form
func (p *RepoPath) UnmarshalText(text []byte) error {
	parsed, err := ParseRepoPath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
