/*
Package route maps request paths to the handlers serving them.

A [Tree] is shaped like a directory of route files.
Directories nest, and a leaf names a [Unit]: an object constructed per request
by the [Factory] registered for the leaf.
Build a Tree at startup by registering Factories, and optionally by scanning
the routes directory to mirror its shape:

	t := route.NewTree()
	t.Register("admin/users", users.New)
	t.Register("index", home.New)

Resolving "admin/users/7" walks into "admin", stops at the leaf "users",
and leaves "7" over. [Match.Lookup] then selects the member of the Unit,
trying "get$7", "$7", then "$index" for a GET.
Were "$index" selected, "7" would be passed to it as a parameter.

Paths with no segments left resolve "index", and a segment matching nothing
is retried as "index" at the same depth, once.
*/
package route
