package service

import "errors"

var ErrUnknownPlayer = errors.New("unknown player")
