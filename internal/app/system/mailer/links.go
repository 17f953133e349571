package mailer

import "net/url"

// LinkWithToken appends token as the "token" query parameter of base,
// keeping any query base already carries.
func LinkWithToken(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
