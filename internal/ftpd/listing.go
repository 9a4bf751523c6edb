package ftpd

import (
	"fmt"

	"github.com/Singular112/ftp-server/internal/ftpd/ftpfs"
)

var monthAbbrev = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// formatListLine renders one directory entry in the fixed-width Unix
// ls -l-ish format spec §4.G specifies, CRLF-terminated, using name in
// place of e.Name (the caller translates the name to the session's
// encoding before calling this). The mode string is a fiction (always
// root:root, writable unless the entry is a directory's read-only
// attribute on Windows) — this POSIX-only port never sets the
// read-only bit, so the write field is always "w" (spec §4.G).
func formatListLine(e ftpfs.Entry, name string) string {
	dirFlag := byte('-')
	if e.Kind == ftpfs.Directory {
		dirFlag = 'd'
	}
	mode := fmt.Sprintf("%crw-rw-rw-", dirFlag)
	month := monthAbbrev[int(e.MTime.Month())-1]
	return fmt.Sprintf("%s   1 root  root  %7d %s %2d  %4d %s\r\n",
		mode, e.Size, month, e.MTime.Day(), e.MTime.Year(), name)
}
