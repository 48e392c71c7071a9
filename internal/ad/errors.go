package ad

import "errors"

type Stage string

const (
	StageCopy  Stage = "copy"
	StageImage Stage = "image"
)

// GenerationError reports a response that came back but could not be used.
// Msg is shown to the user as is.
type GenerationError struct {
	Stage Stage
	Msg   string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return e.Msg + " " + e.Err.Error()
	}
	return e.Msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func IsGeneration(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}
