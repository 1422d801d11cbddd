package logsink

import "fmt"

// DateFolderFormat organizes log blobs by day: YYYY/MM/DD.
const DateFolderFormat = "%d/%02d/%02d"

func FormatDateFolder(year int, month int, day int) string {
	return fmt.Sprintf(DateFolderFormat, year, month, day)
}
