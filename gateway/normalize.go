package gateway

import (
	"strings"

	"github.com/jrsteele09/go-partner-dashboard/internal/utils"
)

// UnknownErrorMessage is shown when an error payload has no recognised shape
const UnknownErrorMessage = "An unknown error occurred"

// matcher turns one error payload shape into a display string
type matcher func(payload any) (string, bool)

// matchers are tried in order, the first match wins
var matchers = []matcher{
	stringMember("detail"),
	stringMember("message"),
	stringMember("error"),
	fieldMessages,
	plainString,
	stringList,
}

// Normalize converts a backend error payload into a message fit for display
func Normalize(payload any) string {
	for _, m := range matchers {
		if msg, ok := m(payload); ok {
			return msg
		}
	}
	return UnknownErrorMessage
}

func stringMember(key string) matcher {
	return func(payload any) (string, bool) {
		members, ok := fields(payload)
		if !ok {
			return "", false
		}
		v, ok := Object(members).StringValue(key)
		return v, ok
	}
}

// fieldMessages matches {"field": ["msg", ...], ...}
func fieldMessages(payload any) (string, bool) {
	members, ok := fields(payload)
	if !ok || len(members) == 0 {
		return "", false
	}

	parts := make([]string, 0, len(members))
	for _, f := range members {
		msgs, ok := asStrings(f.Value)
		if !ok {
			return "", false
		}
		parts = append(parts, f.Key+": "+strings.Join(msgs, ", "))
	}
	return strings.Join(parts, "; "), true
}

func plainString(payload any) (string, bool) {
	s, ok := payload.(string)
	return s, ok && s != ""
}

func stringList(payload any) (string, bool) {
	msgs, ok := asStrings(payload)
	if !ok || len(msgs) == 0 {
		return "", false
	}
	return strings.Join(msgs, " "), true
}

// asStrings accepts a list whose every element is a string
func asStrings(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		msgs := utils.ToStringSlice(list)
		return msgs, len(msgs) == len(list)
	}
	return nil, false
}
