package version

import "fmt"

// Заполняются через -ldflags при сборке релиза.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Build описывает сборку бинарника.
type Build struct {
	Version string
	Commit  string
	Date    string
}

// Info возвращает сведения о текущей сборке.
func Info() Build {
	return Build{Version: version, Commit: commit, Date: date}
}

// GetVersion возвращает только семантическую версию.
func GetVersion() string { return version }

// String форматирует сведения о сборке одной строкой.
func String() string {
	b := Info()
	return fmt.Sprintf("version=%s commit=%s date=%s", b.Version, b.Commit, b.Date)
}
