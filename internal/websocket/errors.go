package websocket

import "errors"

var ErrInvalidFrame = errors.New("invalid frame format")
