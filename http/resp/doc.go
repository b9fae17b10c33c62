/*
Package resp builds and writes HTTP responses.

A [Response] is the envelope handlers return and the router writes.
Build one with functional options:

	return resp.New(resp.Code(http.StatusCreated), resp.Data(user))

	return resp.New(resp.Redirect("/login"), resp.Param("next", "/admin"))

Any value a handler returns that is not a *Response is wrapped as the body of a 200 by [Wrap].
A returned *Response is copied by [Wrap], so one built ahead of time can be returned for every request,
as long as its Body is not a reader.
[Write] sends a Response, encoding bodies that are not text, bytes or readers as JSON.
*/
package resp
