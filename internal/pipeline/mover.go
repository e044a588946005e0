package pipeline

import (
	"io"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// copyFile copies src to dst, replacing dst, and carries over the permission
// bits and modification time.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return errors.Wrap(err, "stat source")
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fi.Mode().Perm())
	if err != nil {
		return errors.Wrap(err, "create destination")
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close destination")
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return errors.Wrap(err, "copy data")
	}
	if err = out.Chmod(fi.Mode().Perm()); err != nil {
		return errors.Wrap(err, "set mode")
	}
	if err = os.Chtimes(dst, fi.ModTime(), fi.ModTime()); err != nil {
		return errors.Wrap(err, "set times")
	}
	return nil
}

// moveFile renames src to dst, falling back to copy and remove when the two
// are on different devices.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return errors.Wrap(err, "rename")
	}
	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return errors.Wrap(os.Remove(src), "remove source after copy")
}
