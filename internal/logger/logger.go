package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// До вызова Init логгеры пишут в никуда — пакеты могут логировать
// безопасно в любом порядке инициализации (и в тестах).
var (
	InfoLog  = log.New(io.Discard, "", 0)
	ErrorLog = log.New(io.Discard, "", 0)

	infoFile  *os.File
	errorFile *os.File
)

// Init переключает логгеры на запись в файлы info.log и error.log
// внутри logsPath. В stdout ничего не пишется.
func Init(logsPath string) error {
	if err := os.MkdirAll(logsPath, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	infoPath := filepath.Join(logsPath, "info.log")
	var err error
	infoFile, err = os.OpenFile(infoPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open info.log: %w", err)
	}

	errorPath := filepath.Join(logsPath, "error.log")
	errorFile, err = os.OpenFile(errorPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		infoFile.Close()
		return fmt.Errorf("failed to open error.log: %w", err)
	}

	InfoLog = log.New(infoFile, "", log.LstdFlags|log.Lshortfile)
	ErrorLog = log.New(errorFile, "", log.LstdFlags|log.Lshortfile)

	InfoLog.Printf("Logger initialized. Logs directory: %s", logsPath)

	return nil
}

// Cleanup сбрасывает буферы и закрывает файлы логов
func Cleanup() error {
	var errInfo, errError error

	if infoFile != nil {
		infoFile.Sync()
		errInfo = infoFile.Close()
		infoFile = nil
	}

	if errorFile != nil {
		errorFile.Sync()
		errError = errorFile.Close()
		errorFile = nil
	}

	InfoLog = log.New(io.Discard, "", 0)
	ErrorLog = log.New(io.Discard, "", 0)

	if errInfo != nil {
		return errInfo
	}
	return errError
}
