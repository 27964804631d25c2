// Package authsdk is a Go client for the coaching platform auth service.
//
// A Client covers the unauthenticated endpoints (register, login, signup by
// one-time code, refresh, health). A Session wraps a token pair, attaches the
// access token to requests and rotates the pair once when the server answers
// 401.
//
//	c := authsdk.NewClient("http://localhost:8080")
//	s, err := c.Login(ctx, "jamie@example.com", "hunter22")
//	if err != nil {
//		return err
//	}
//	me, err := s.Me(ctx)
package authsdk
