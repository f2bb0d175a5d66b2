package response

import "net/http"

// Empty is a successful payload with no data, e.g. revoke or a downloads update.
type Empty struct{}

func (Empty) StatusCode() int    { return http.StatusOK }
func (Empty) Success() bool      { return true }
func (Empty) SingleLine() string { return "" }
func (e Empty) MarshalJSON() ([]byte, error) {
	return []byte(`{}`), nil
}
