package cache

import "errors"

var ErrMiss = errors.New("cache miss")
