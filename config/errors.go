package config

import "errors"

var (
	ErrReadingConfigFailed  = errors.New("reading config file failed")
	ErrDecodingConfigFailed = errors.New("decoding config failed")
	ErrInvalidConfig        = errors.New("invalid config")

	ErrOpeningDatabaseFailed = errors.New("opening database failed")
	ErrPingingDatabaseFailed = errors.New("pinging database failed")
)
