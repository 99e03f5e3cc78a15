package common

import (
	"io"
	"os"
)

// Close is a helper function for absorbing errors in the `defer x.Close()` pattern
func Close(o io.Closer) {
	_ = o.Close()
}

// CreateFile opens filename for writing with the given permissions. Unless
// forceOverwrite is set it fails if the file already exists.
func CreateFile(filename string, forceOverwrite bool, perm os.FileMode) (*os.File, error) {
	if forceOverwrite {
		return os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm)
	}
	// This should return an error if the file already exists
	return os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
}

// WriteFile writes data to filename, see CreateFile.
func WriteFile(filename string, data []byte, forceOverwrite bool, perm os.FileMode) error {
	f, err := CreateFile(filename, forceOverwrite, perm)
	if err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		Close(f)
		return err
	}
	return f.Close()
}
