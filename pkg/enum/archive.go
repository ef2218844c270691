package enum

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"
)

// ArchiveMember represents one member enumerated from an archive.
type ArchiveMember struct {
	Name    string // path within the archive (e.g., "rootfs/bin/busybox")
	Content []byte // member bytes
}

// EnumArchive lists the members of supported archive formats (zip, 7z).
// Members larger than maxSize are skipped when maxSize > 0. Unreadable
// members are skipped rather than failing the whole archive.
func EnumArchive(path string, content []byte, maxSize int64) ([]ArchiveMember, error) {
	switch getExtension(path) {
	case ".zip":
		return enumZip(content, maxSize)
	case ".7z":
		return enum7z(content, maxSize)
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", getExtension(path))
	}
}

// enumZip enumerates zip archive members.
func enumZip(content []byte, maxSize int64) ([]ArchiveMember, error) {
	reader := bytes.NewReader(content)
	zipReader, err := zip.NewReader(reader, int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}

	var members []ArchiveMember
	for _, file := range zipReader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if maxSize > 0 && int64(file.UncompressedSize64) > maxSize {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		members = append(members, ArchiveMember{
			Name:    file.Name,
			Content: data,
		})
	}

	return members, nil
}

// enum7z enumerates 7-Zip archive members.
func enum7z(content []byte, maxSize int64) ([]ArchiveMember, error) {
	reader, err := sevenzip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open 7z: %w", err)
	}

	var members []ArchiveMember
	for _, file := range reader.File {
		info := file.FileInfo()
		if info.IsDir() {
			continue
		}
		if maxSize > 0 && info.Size() > maxSize {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		members = append(members, ArchiveMember{
			Name:    file.Name,
			Content: data,
		})
	}

	return members, nil
}
