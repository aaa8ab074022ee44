package view

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"
)

const flashCookieName = "fpc_flash"

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Flasher keeps flashes in a signed, short-lived cookie.
type Flasher struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func NewFlasher(hashKey []byte, secure bool) *Flasher {
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(300)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Flasher{codec: codec, secure: secure}
}

func (f *Flasher) Set(w http.ResponseWriter, kind string, message string) {
	encoded, err := f.codec.Encode(flashCookieName, Flash{Kind: kind, Message: message})
	if err != nil {
		slog.Warn("flash encode failed", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending flash, if any, and clears it.
func (f *Flasher) Pop(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})

	var flash Flash
	if err := f.codec.Decode(flashCookieName, cookie.Value, &flash); err != nil {
		return nil
	}
	return &flash
}
