package mysql

import "errors"

var errInvalidPayload = errors.New("outbox payload is not valid json")
