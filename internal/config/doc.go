// Package config loads the event routes server configuration.
//
// Configuration lives in eventroutes.json or eventroutes.toml at the project
// root, or in an S3 object. Environment variables override file values.
//
// # Configuration File Structure
//
//	addr = ":8080"
//	base = "/"
//
//	[log]
//	level = "info"
//	format = "json"
//
//	[history]
//	limit = 100
//
//	[metrics]
//	namespace = "eventroutes"
//
//	[[routes]]
//	pattern = "/events/:id/guests"
//	name = "event-guests"
//	view = "EventGuests"
//	props = true
//
// Routes declared here are added to the built-in events table.
//
// # Environment
//
//	EVENTROUTES_ADDR        listen address
//	EVENTROUTES_BASE        base path the app is mounted under
//	EVENTROUTES_LOG_LEVEL   debug, info, warn or error
//	EVENTROUTES_LOG_FORMAT  text or json
//
// # Usage
//
//	cfg, err := config.LoadSource(ctx, "s3://my-bucket/eventroutes.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.Addr)
package config
