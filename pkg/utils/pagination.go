package utils

func ValidatePage(page, pageSize int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return ErrInvalidPageSize
	}
	return nil
}
