package logger

import (
	"fmt"
	"os"
	"path/filepath"
)

// rotatingFile appends to path and, once more than maxBytes have been
// written, shifts path -> path.1 -> path.2 ... keeping keep old files.
type rotatingFile struct {
	path     string
	maxBytes int64
	keep     int

	file *os.File
	size int64
}

func openRotatingFile(path string, maxBytes int64, keep int) (*rotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	rf := &rotatingFile{path: path, maxBytes: maxBytes, keep: keep, file: file}
	if info, err := file.Stat(); err == nil {
		rf.size = info.Size()
	}
	return rf, nil
}

func (rf *rotatingFile) Write(p []byte) (int, error) {
	if rf.file == nil {
		return 0, os.ErrClosed
	}
	n, err := rf.file.Write(p)
	rf.size += int64(n)
	if err == nil && rf.maxBytes > 0 && rf.size > rf.maxBytes {
		err = rf.rotate()
	}
	return n, err
}

func (rf *rotatingFile) backup(i int) string {
	return fmt.Sprintf("%s.%d", rf.path, i)
}

func (rf *rotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		return err
	}
	rf.file = nil

	if rf.keep > 0 {
		os.Remove(rf.backup(rf.keep))
		for i := rf.keep - 1; i >= 1; i-- {
			os.Rename(rf.backup(i), rf.backup(i+1))
		}
		os.Rename(rf.path, rf.backup(1))
	}

	file, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	rf.file = file
	rf.size = 0
	return nil
}

func (rf *rotatingFile) Close() error {
	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}
