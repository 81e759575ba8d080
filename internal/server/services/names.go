package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/dmitrijs2005/wsdrive/internal/common"
	"github.com/dmitrijs2005/wsdrive/internal/server/storage"
)

const maxSanitizedBaseLen = 50

// SanitizeFileName derives the storage key segment for an uploaded file.
// Every character of the base name outside [A-Za-z0-9.-] becomes "_" and the
// base is cut to 50 characters; the extension after the last dot is kept as is.
// Characters are UTF-16 code units, so a rune outside the BMP turns into two
// underscores and counts twice toward the limit.
//
//	"My Report (Final)!.pdf" -> "My_Report__Final__.pdf"
//	"😀.txt"                 -> "__.txt"
func SanitizeFileName(name string) string {
	base, ext, hasExt := name, "", false
	if i := strings.LastIndex(name, "."); i >= 0 {
		base, ext, hasExt = name[:i], name[i+1:], true
	}

	// the output is ASCII, so bytes and code units coincide
	var b strings.Builder
	for _, r := range base {
		if b.Len() >= maxSanitizedBaseLen {
			break
		}
		if isKeyRune(r) {
			b.WriteRune(r)
			continue
		}
		units := utf16.RuneLen(r)
		if units < 1 {
			units = 1
		}
		b.WriteString(strings.Repeat("_", units))
	}

	out := b.String()
	if len(out) > maxSanitizedBaseLen {
		out = out[:maxSanitizedBaseLen]
	}
	if !hasExt {
		return out
	}
	return out + "." + ext
}

func isKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-':
		return true
	}
	return false
}

// validateFolderName trims name and rejects empty names, separators and dot
// segments.
func validateFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: folder name is empty", common.ErrorValidation)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: folder name %q contains a path separator", common.ErrorValidation, name)
	}
	if name == "." || name == ".." || name == common.MarkerFileName {
		return "", fmt.Errorf("%w: folder name %q is reserved", common.ErrorValidation, name)
	}
	return name, nil
}

func validateWorkspace(ws string) error {
	if ws == "" || strings.ContainsAny(ws, `/\`) || ws == "." || ws == ".." {
		return fmt.Errorf("%w: invalid workspace id %q", common.ErrorValidation, ws)
	}
	if ws == common.TrashRootPrefix {
		return fmt.Errorf("%w: workspace id %q is reserved", common.ErrorValidation, ws)
	}
	return nil
}

// scopedPath checks that path is a file key inside workspace ws.
func scopedPath(ws, path string) (string, error) {
	if err := validateWorkspace(ws); err != nil {
		return "", err
	}
	path = strings.Trim(path, "/")
	if !strings.HasPrefix(path, ws+"/") {
		return "", fmt.Errorf("%w: path %q is outside workspace %q", common.ErrorForbidden, path, ws)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: malformed path %q", common.ErrorValidation, path)
		}
	}
	return path, nil
}

// folderPrefix returns ws or ws/folder; folder may be nested ("F1/F2").
func folderPrefix(ws, folder string) (string, error) {
	if err := validateWorkspace(ws); err != nil {
		return "", err
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ws, nil
	}
	for _, seg := range strings.Split(folder, "/") {
		if _, err := validateFolderName(seg); err != nil {
			return "", err
		}
	}
	return storage.JoinPath(ws, folder), nil
}

// TrashPath returns trash/{ws}/{unixMillis}_{fileName}.
func TrashPath(ws string, at time.Time, fileName string) string {
	return storage.JoinPath(common.TrashRootPrefix, ws, strconv.FormatInt(at.UnixMilli(), 10)+"_"+fileName)
}

// parseTrashName splits a trash object name into its deletion time and the
// stored file name. Names without a millisecond prefix yield a zero time.
func parseTrashName(base string) (time.Time, string) {
	ms, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return time.Time{}, base
	}
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, base
	}
	return time.UnixMilli(n).UTC(), name
}

func trashPrefix(ws string) string {
	return storage.JoinPath(common.TrashRootPrefix, ws)
}
