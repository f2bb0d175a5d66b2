package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/scotow/dropit/internal/upload"
)

func jsonMarshal(v any) ([]byte, error) { return json.Marshal(v) }

// uploadPayload renders an upload.Result per spec §4.7 step 9.
type uploadPayload struct {
	result *upload.Result
}

type uploadAliases struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

type uploadLinks struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

type uploadExpiration struct {
	Current int64 `json:"current"`
	Allowed int64 `json:"allowed"`
}

func (p uploadPayload) StatusCode() int { return http.StatusCreated }
func (p uploadPayload) Success() bool   { return true }
func (p uploadPayload) SingleLine() string {
	return p.result.LinkShort
}

func (p uploadPayload) MarshalJSON() ([]byte, error) {
	return jsonMarshal(struct {
		Admin      string           `json:"admin"`
		Name       string           `json:"name"`
		Size       int64            `json:"size"`
		Aliases    uploadAliases    `json:"aliases"`
		Links      uploadLinks      `json:"links"`
		Expiration uploadExpiration `json:"expiration"`
	}{
		Admin: p.result.AdminToken,
		Name:  p.result.Name,
		Size:  p.result.Size,
		Aliases: uploadAliases{
			Short: p.result.AliasShort,
			Long:  p.result.AliasLong,
		},
		Links: uploadLinks{
			Short: p.result.LinkShort,
			Long:  p.result.LinkLong,
		},
		Expiration: uploadExpiration{
			Current: int64(p.result.Current.Seconds()),
			Allowed: int64(p.result.Allowed.Seconds()),
		},
	})
}

// aliasesPayload renders the outcome of AdminMutator.RegenerateAliases.
type aliasesPayload struct {
	short, long string
}

func (p aliasesPayload) StatusCode() int    { return http.StatusOK }
func (p aliasesPayload) Success() bool      { return true }
func (p aliasesPayload) SingleLine() string { return p.short + p.long }
func (p aliasesPayload) MarshalJSON() ([]byte, error) {
	return jsonMarshal(struct {
		Short string `json:"short,omitempty"`
		Long  string `json:"long,omitempty"`
	}{Short: p.short, Long: p.long})
}

// expirationPayload renders the outcome of AdminMutator.SetExpiration.
type expirationPayload struct {
	current, allowed time.Duration
}

func (p expirationPayload) StatusCode() int { return http.StatusOK }
func (p expirationPayload) Success() bool   { return true }
func (p expirationPayload) SingleLine() string {
	return p.current.String()
}
func (p expirationPayload) MarshalJSON() ([]byte, error) {
	return jsonMarshal(struct {
		Current int64 `json:"current"`
		Allowed int64 `json:"allowed"`
	}{Current: int64(p.current.Seconds()), Allowed: int64(p.allowed.Seconds())})
}

// validityPayload renders the InfoEndpoint's per-alias existence map.
type validityPayload struct {
	results map[string]bool
}

func (p validityPayload) StatusCode() int { return http.StatusOK }
func (p validityPayload) Success() bool   { return true }
func (p validityPayload) SingleLine() string {
	for _, v := range p.results {
		if v {
			return "true"
		}
	}
	return "false"
}
func (p validityPayload) MarshalJSON() ([]byte, error) {
	return jsonMarshal(p.results)
}
