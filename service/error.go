package service

import (
	"fmt"
)

// Verify Interface Compliance
var _ error = (*Err)(nil)

// Err defines service errors.
type Err struct {
	Code    int64  `json:"code"`
	Message string `json:"error"`
}

var (
	NoErr         = Err{Code: 0, Message: ""}
	BadRequestErr = Err{Code: 400, Message: "bad request"}
	NotFoundErr   = Err{Code: 404, Message: "proof not found"}
	InternalErr   = Err{Code: 500, Message: "internal error"}
)

func (e Err) Enrich(message string) Err {
	return Err{
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", e.Message, message),
	}
}

func (e Err) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Error maps any error to a response code and message.
func Error(err error) (int64, string) {
	switch e := err.(type) {
	case Err:
		return e.Code, e.Message
	case nil:
		return NoErr.Code, NoErr.Message
	default:
		return InternalErr.Code, err.Error()
	}
}
