// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package web

import (
	"golang.org/x/text/language"

	"github.com/sharebox/sharebox/internal/auth"
)

// Message identifiers outside the auth taxonomy.
const (
	MsgHome            = "HOME"
	MsgRegistered      = "REGISTERED"
	MsgLoggedIn        = "LOGGED_IN"
	MsgLoggedOut       = "LOGGED_OUT"
	MsgLoginRequired   = "LOGIN_REQUIRED"
	MsgAlreadyLoggedIn = "ALREADY_LOGGED_IN"
	MsgInvalidInput    = "INVALID_INPUT"
	MsgInternal        = "INTERNAL_ERROR"
)

var polish = map[string]string{
	auth.KindPasswordsNotIdentical.String(): "Hasła nie są identyczne",
	auth.KindPasswordTooShort.String():      "Hasło za krótkie",
	auth.KindInvalidName.String():           "Użytkownik musi składać się tylko z liter",
	auth.KindDuplicateUser.String():         "Użytkownik już istnieje",
	auth.KindCSRFMismatch.String():          "Nie ma tokenu CSRF",
	auth.KindInvalidUserOrPassword.String(): "Niepoprawny login lub hasło.",
	auth.KindUnknownUser.String():           "Niepoprawny login lub hasło.",

	MsgHome:            "Strona główna",
	MsgRegistered:      "Konto zarejestrowane.",
	MsgLoggedIn:        "Zalogowano.",
	MsgLoggedOut:       "Wylogowano.",
	MsgLoginRequired:   "Ta strona wymaga zalogowania.",
	MsgAlreadyLoggedIn: "Jesteś już zalogowany.",
	MsgInvalidInput:    "Niepoprawne dane formularza.",
	MsgInternal:        "Wystąpił błąd serwera. Spróbuj ponownie później.",
}

var english = map[string]string{
	auth.KindPasswordsNotIdentical.String(): "Passwords do not match",
	auth.KindPasswordTooShort.String():      "Password is too short",
	auth.KindInvalidName.String():           "User name may contain letters only",
	auth.KindDuplicateUser.String():         "User already exists",
	auth.KindCSRFMismatch.String():          "Missing CSRF token",
	auth.KindInvalidUserOrPassword.String(): "Invalid login or password.",
	auth.KindUnknownUser.String():           "Invalid login or password.",

	MsgHome:            "Home page",
	MsgRegistered:      "Account registered.",
	MsgLoggedIn:        "Logged in.",
	MsgLoggedOut:       "Logged out.",
	MsgLoginRequired:   "This page requires logging in.",
	MsgAlreadyLoggedIn: "You are already logged in.",
	MsgInvalidInput:    "Invalid form data.",
	MsgInternal:        "Something went wrong. Please try again later.",
}

// Catalog holds the user-visible messages per language. Polish is the
// default when Accept-Language matches nothing.
type Catalog struct {
	tags     []language.Tag
	matcher  language.Matcher
	messages []map[string]string
}

// NewCatalog returns the Polish and English catalog.
func NewCatalog() *Catalog {
	tags := []language.Tag{language.Polish, language.English}
	return &Catalog{
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		messages: []map[string]string{polish, english},
	}
}

// Language returns the supported language negotiated from an
// Accept-Language header value.
func (c *Catalog) Language(acceptLanguage string) language.Tag {
	return c.tags[c.index(acceptLanguage)]
}

// Message returns the message for id in the negotiated language. Unknown
// ids resolve to the generic internal error message.
func (c *Catalog) Message(acceptLanguage, id string) string {
	messages := c.messages[c.index(acceptLanguage)]
	if msg, ok := messages[id]; ok {
		return msg
	}
	return messages[MsgInternal]
}

// ForKind returns the message for a failure kind. Internal kinds share one
// generic message.
func (c *Catalog) ForKind(acceptLanguage string, kind auth.Kind) string {
	if !kind.IsUserFacing() {
		return c.Message(acceptLanguage, MsgInternal)
	}
	return c.Message(acceptLanguage, kind.String())
}

func (c *Catalog) index(acceptLanguage string) int {
	_, idx := language.MatchStrings(c.matcher, acceptLanguage)
	if idx < 0 || idx >= len(c.tags) {
		return 0
	}
	return idx
}
