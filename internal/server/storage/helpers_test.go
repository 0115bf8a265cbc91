package storage

import "io/fs"

func errNotExist() error   { return &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist} }
func errPermission() error { return &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission} }
