// Package authmw provides route-level authentication/authorization
// middleware for navigation.
//
// Authentication itself happens in HTTP middleware, which stores the user
// in the request context with WithUser. WebSocket sessions navigate with
// that context, so guards here see the same user:
//
//	r := chi.NewRouter()
//	r.Use(func(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        if u := lookupUser(r); u != nil {
//	            r = r.WithContext(authmw.WithUser(r.Context(), u))
//	        }
//	        next.ServeHTTP(w, r)
//	    })
//	})
//	srv := server.New(table, registry, nil, server.WithNavigationMiddleware(
//	    authmw.RequireLogin("/", "login"),
//	))
//	r.Mount("/", srv.Handler())
package authmw
