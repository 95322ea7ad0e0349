// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the admin session guard and voter identity tokens.

# Admin Password

There are no user accounts, only one shared admin password. It is hashed with
bcrypt at startup (or supplied pre-hashed) and compared in constant time:

	checker, err := auth.NewPasswordChecker(cfg.AdminPassword, cfg.AdminPasswordHash)
	if err := checker.Check(r.FormValue("password")); err != nil { ... }

# Admin Sessions

A successful login issues an HS256 JWT carried in the admin_session cookie:

	token, err := auth.IssueAdminSession(cfg.SessionSecret, cfg.SessionTTL)
	http.SetCookie(w, auth.AdminCookie(token, cfg.SessionTTL, cfg.CookieSecure))

IsAdmin is the one capability check every admin route goes through. Sessions
end at logout (the cookie is cleared) or when the token expires. Tokens are
stateless, so a copied token stays valid until its exp even after logout.

# Voter Tokens

Guests get a random uuid identity in a long-lived signed voter cookie.
The uuid is the voter token stored on each vote; signing stops guests from
choosing somebody else's identity.

	token, voterID, err := auth.IssueVoterToken(secret)
	voterID, err := auth.VoterID(token, secret)

# Security Notes

  - Tokens are signed with HS256 and parsed with an explicit method allowlist
  - Admin and voter tokens use different audiences and are not interchangeable
  - Cookies are HttpOnly and SameSite=Lax; Secure is configurable
*/
package auth
