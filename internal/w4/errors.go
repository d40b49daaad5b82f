package w4

import "errors"

var (
	ErrMissingFile        = errors.New("source file does not exist")
	ErrMissingTagValue    = errors.New("structured content requires a discovery tag value")
	ErrUnsupportedContent = errors.New("unsupported content type")
	ErrMissingTarget      = errors.New("no discovery target: set a tag value, a version or an id")
)

// InputError is a caller mistake detected before any network interaction.
type InputError struct {
	Op  string
	Err error
}

func (e *InputError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// FundingError means the price/balance lookup or the top-up failed.
type FundingError struct {
	Op  string
	Err error
}

func (e *FundingError) Error() string { return "funding " + e.Op + ": " + e.Err.Error() }
func (e *FundingError) Unwrap() error { return e.Err }

// PublishError means the blob submission or its bookkeeping failed.
type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string { return "publish " + e.Op + ": " + e.Err.Error() }
func (e *PublishError) Unwrap() error { return e.Err }

// QueryError means the discovery query could not be executed.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string { return "query: " + e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }

// FetchError means a direct fetch by id failed.
type FetchError struct {
	ID  string
	Err error
}

func (e *FetchError) Error() string { return "fetch " + e.ID + ": " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }
