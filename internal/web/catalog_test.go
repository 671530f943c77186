// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/sharebox/sharebox/internal/auth"
)

var allKinds = []auth.Kind{
	auth.KindPasswordTooShort,
	auth.KindPasswordsNotIdentical,
	auth.KindInvalidName,
	auth.KindInvalidUserOrPassword,
	auth.KindUnknownUser,
	auth.KindCSRFMismatch,
	auth.KindDuplicateUser,
	auth.KindHashingFailure,
	auth.KindStorageUnavailable,
}

func TestCatalog_Language(t *testing.T) {
	c := NewCatalog()

	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.Polish},
		{"pl-PL", language.Polish},
		{"en-US,en;q=0.9", language.English},
		{"de-DE", language.Polish},
		{"de-DE,en;q=0.5", language.English},
		{"not a header;;", language.Polish},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Language(tt.header))
		})
	}
}

func TestCatalog_EveryKindHasMessages(t *testing.T) {
	c := NewCatalog()
	for _, lang := range []string{"pl", "en"} {
		for _, kind := range allKinds {
			assert.NotEmpty(t, c.ForKind(lang, kind), "%s/%s", lang, kind)
		}
	}
}

func TestCatalog_InternalKindsShareGenericMessage(t *testing.T) {
	c := NewCatalog()

	generic := c.Message("pl", MsgInternal)
	assert.Equal(t, generic, c.ForKind("pl", auth.KindHashingFailure))
	assert.Equal(t, generic, c.ForKind("pl", auth.KindStorageUnavailable))
	assert.NotEqual(t, generic, c.ForKind("pl", auth.KindDuplicateUser))
}

func TestCatalog_CredentialFailuresIndistinguishable(t *testing.T) {
	c := NewCatalog()
	for _, lang := range []string{"pl", "en"} {
		assert.Equal(t,
			c.ForKind(lang, auth.KindInvalidUserOrPassword),
			c.ForKind(lang, auth.KindUnknownUser))
	}
}

func TestCatalog_UnknownIDFallsBackToGeneric(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, c.Message("en", MsgInternal), c.Message("en", "NO_SUCH_MESSAGE"))
}

func TestCatalog_LanguagesCoverSameIDs(t *testing.T) {
	assert.Len(t, english, len(polish))
	for id := range polish {
		assert.Contains(t, english, id)
	}
}
