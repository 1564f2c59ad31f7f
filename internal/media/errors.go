package media

import "errors"

// Ошибки валидации — возвращаются до любого I/O
var (
	ErrEmptyFilename    = errors.New("filename is empty")
	ErrFileTooLarge     = errors.New("file exceeds size limit")
	ErrInvalidMediaType = errors.New("invalid media type: only image/* and video/* are accepted")
	ErrInvalidFolder    = errors.New("unknown folder")
)

// Ошибки выполнения загрузки
var (
	// ErrStorageWrite — запись файла не удалась, метаданные не создавались
	ErrStorageWrite = errors.New("storage write failed")

	// ErrMetadataInsert — файл записан, но вставка метаданных не удалась.
	// Файл остаётся на диске без записи (осиротевший blob): чистка его
	// не видит, поэтому ошибка отдаётся вызывающему отдельно.
	ErrMetadataInsert = errors.New("metadata insert failed")
)

// IsValidation сообщает, относится ли ошибка к валидации входных данных
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyFilename) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrInvalidMediaType) ||
		errors.Is(err, ErrInvalidFolder)
}
