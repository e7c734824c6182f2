// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import "strings"

// tokenContent holds the translated pieces of a token email.
type tokenContent struct {
	Greeting string
	Intro    string
	Action   string
	CodeHint string
	Expiry   string
	Ignore   string
	URL      string
	Token    string
}

func (c tokenContent) plain() string {
	var b strings.Builder
	b.WriteString(c.Greeting + "\n\n")
	b.WriteString(c.Intro + "\n\n")
	b.WriteString(c.Action + ": " + c.URL + "\n")
	b.WriteString(c.CodeHint + ": " + c.Token + "\n\n")
	b.WriteString(c.Expiry + "\n")
	b.WriteString(c.Ignore + "\n")
	return b.String()
}
